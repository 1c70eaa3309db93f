package store

import (
	"fmt"
	"time"
)

// Op names a store operation carried by a Request.
type Op int

const (
	OpGet Op = iota
	OpSet
	OpRemove
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Request is one queued store operation. Reply is called exactly once with
// the result; value is only set for OpGet.
type Request struct {
	Op    Op
	Key   string
	Value []byte
	TTL   time.Duration
	Reply func(value []byte, err error)
}

// Handle executes req against s and delivers the result to req.Reply.
func Handle(s Store, req Request) {
	var (
		value []byte
		err   error
	)
	switch req.Op {
	case OpGet:
		value, err = s.Get(req.Key)
	case OpSet:
		err = s.Set(req.Key, req.Value, req.TTL)
	case OpRemove:
		err = s.Remove(req.Key)
	case OpClear:
		err = s.Clear()
	default:
		err = fmt.Errorf("keeper: unknown operation %v", req.Op)
	}
	if req.Reply != nil {
		req.Reply(value, err)
	}
}

// Serve runs requests from queue until it is closed. Requests already queued
// when the channel is closed are still served.
func Serve(s Store, queue <-chan Request) {
	for req := range queue {
		Handle(s, req)
	}
}
