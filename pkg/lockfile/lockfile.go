package lockfile

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Interval is how often a held lock is retried.
var Interval = time.Second

// Take creates path exclusively, retrying until ctx is done. waiting is
// called each time the lock is found held. The returned func releases it.
func Take(ctx context.Context, path string, waiting func()) (func(), error) {
	tk := time.NewTicker(Interval)
	defer tk.Stop()

	var (
		f   *os.File
		err error
	)

	for {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			break
		}

		if !os.IsExist(err) {
			return nil, err
		}

		if waiting != nil {
			waiting()
		}

		select {
		case <-tk.C:
			// ok
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	closer := func() {
		os.Remove(path)
	}

	return closer, nil
}
