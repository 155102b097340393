// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shader defines the reflected binding interface of a shader
// module: resource keys, type descriptors, and the records a renderer
// needs to build descriptor and pipeline layouts.
package shader
