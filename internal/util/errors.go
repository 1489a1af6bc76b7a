package util

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("a user with this email already exists")
	ErrRoadmapNotFound    = errors.New("roadmap not found")
	ErrRoadmapHasNoTopics = errors.New("roadmap has no topics")
	ErrTopicNotInRoadmap  = errors.New("topic does not belong to roadmap")
	ErrProgressConflict   = errors.New("progress was modified concurrently, please retry")
	ErrSessionNotFound    = errors.New("chat session not found")
)

// StoreError 持久化失败，Op 标明失败的操作
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
