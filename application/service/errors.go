package service

import "errors"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("pagevec: client is closed")

// ErrEmptyEmbedding indicates the provider answered without a vector.
var ErrEmptyEmbedding = errors.New("provider returned no embedding")
