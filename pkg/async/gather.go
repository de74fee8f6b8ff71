package async

func GatherN[R any](cs ...<-chan R) <-chan []R {
	return Promise(func() []R {
		results := make([]R, len(cs))
		for i, f := range cs {
			results[i] = <-f
		}
		return results
	})
}

// Collect waits for every result and returns the values in order along
// with the first error.
func Collect[R any](cs ...<-chan Result[R]) ([]R, error) {
	values := make([]R, len(cs))
	var first error
	for i, r := range <-GatherN(cs...) {
		values[i] = r.Value
		if r.Err != nil && first == nil {
			first = r.Err
		}
	}
	return values, first
}
