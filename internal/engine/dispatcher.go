package engine

import "github.com/me/batchsim/pkg/model"

// Schedule removes and returns the head of rq. The queue order already
// encodes the policy, so there is nothing to compare here. An empty queue
// yields model.NoProcess, which callers treat as an idle CPU.
func Schedule(rq *ReadyQueue) model.PID {
	head, ok := rq.PeekHead()
	if !ok {
		return model.NoProcess
	}
	if !rq.RemoveHead() {
		return model.NoProcess
	}
	return head.PID
}
