package async

// Promise runs f in its own goroutine. The channel delivers exactly one
// value and never blocks the producer.
func Promise[R any](f func() R) <-chan R {
	out := make(chan R, 1)
	go func() {
		out <- f()
	}()
	return out
}

type Result[R any] struct {
	Value R
	Err   error
}

func Try[R any](f func() (R, error)) <-chan Result[R] {
	return Promise(func() Result[R] {
		v, err := f()
		return Result[R]{Value: v, Err: err}
	})
}
