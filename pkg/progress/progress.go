package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

type pbKey struct{}

// Open arranges for progress created from ctx to be drawn on w.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, pbKey{}, w)
}

// Progress tracks a counted operation. The zero value discards updates.
type Progress struct {
	bar    *pb.ProgressBar
	prefix string
}

func (t *Progress) Tick() {
	if t.bar == nil {
		return
	}

	t.bar.Add(1)
}

func (t *Progress) On(step string) {
	if t.bar == nil {
		return
	}

	t.bar.Describe(t.prefix + ": " + step)
}

func (t *Progress) Close() {
	if t.bar == nil {
		return
	}

	t.bar.Close()
}

// Count starts a bar of total steps, or a silent Progress if ctx was not
// opened for output.
func Count(ctx context.Context, total int64, desc string) *Progress {
	w, ok := ctx.Value(pbKey{}).(io.Writer)
	if !ok {
		return &Progress{}
	}

	bar := pb.NewOptions64(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	bar.RenderBlank()

	return &Progress{prefix: desc, bar: bar}
}
