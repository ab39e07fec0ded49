// Package garray provides Array, the growable backing buffer for bucket arrays.
//
// An Array has no spare capacity: its length is its allocation. Grow and Shrink
// resize the buffer explicitly and never move the objects that elements point
// to, so containers that store pointers to nodes (all bucket kinds) keep their
// entries at stable addresses across resizes.
//
// Array is not thread-safe. Callers serialize access.
package garray
