package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseAllRunsInReverse(t *testing.T) {
	var order []string
	closeAll([]func(){
		func() { order = append(order, "pool") },
		func() { order = append(order, "worker") },
		func() { order = append(order, "redis") },
	})

	assert.Equal(t, []string{"redis", "worker", "pool"}, order)
}

func TestCloseAllEmpty(t *testing.T) {
	closeAll(nil)
}
