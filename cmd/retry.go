package cmd

import (
	"errors"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

const keyRetries = "retries"

// retryInitialDelay is the wait before the first retry; it doubles per attempt.
var retryInitialDelay = 200 * time.Millisecond

// retryTransport runs fn and repeats it up to retries times while it fails
// with a transport error. API errors are returned immediately.
func retryTransport(retries int, fn func() error) error {
	if retries <= 0 {
		return fn()
	}

	backoff := wait.Backoff{
		Steps:    retries + 1,
		Duration: retryInitialDelay,
		Factor:   2.0,
		Jitter:   0.1,
	}
	return retry.OnError(backoff, isTransportError, fn)
}

func isTransportError(err error) bool {
	return errors.Is(err, k8s.ErrTransport)
}
