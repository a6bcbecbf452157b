package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptimizer struct {
	mu      sync.Mutex
	calls   int
	gates   map[string]chan struct{}
	results map[string]*imageopt.Result
	errs    map[string]error
}

func (o *fakeOptimizer) Optimize(ctx context.Context, f *imageopt.File, opts imageopt.Options) (*imageopt.Result, error) {
	o.mu.Lock()
	o.calls++
	gate := o.gates[f.Name]
	res, err := o.results[f.Name], o.errs[f.Name]
	o.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return res, err
}

func fileOfSize(name, mimeType string, size int) *imageopt.File {
	return imageopt.NewFile(name, mimeType, time.Time{}, make([]byte, size))
}

var smallLimits = imageopt.Options{MaxBytes: 100, TargetBytes: 90}

func TestImageField_SmallFileIsReadyWithoutOptimizing(t *testing.T) {
	opt := &fakeOptimizer{}
	resets := 0
	field := NewImageField(opt, smallLimits, func() { resets++ })

	state := field.Select(context.Background(), fileOfSize("a.png", "image/png", 100))

	assert.Equal(t, ImageReady, state.Status)
	assert.False(t, state.WasOptimized)
	assert.Equal(t, int64(100), state.FinalBytes)
	assert.Equal(t, "image/png", state.MIMEType)
	assert.Zero(t, opt.calls)
	assert.Equal(t, 1, resets)
	assert.True(t, field.CanSubmit())
	assert.Equal(t, "a.png", field.Prepared().Name)
}

func TestImageField_NotImage(t *testing.T) {
	field := NewImageField(&fakeOptimizer{}, smallLimits, nil)

	state := field.Select(context.Background(), fileOfSize("a.txt", "text/plain", 10))

	assert.Equal(t, ImageError, state.Status)
	assert.Equal(t, "Please choose an image file.", state.Message)
	assert.False(t, field.CanSubmit())
	assert.Nil(t, field.Prepared())
}

func TestImageField_NilSelectionIsIdle(t *testing.T) {
	field := NewImageField(&fakeOptimizer{}, smallLimits, nil)
	field.Select(context.Background(), fileOfSize("a.txt", "text/plain", 10))

	state := field.Select(context.Background(), nil)

	assert.Equal(t, ImageIdle, state.Status)
	assert.True(t, field.CanSubmit())
}

func TestImageField_Optimized(t *testing.T) {
	prepared := fileOfSize("big.webp", "image/webp", 80)
	opt := &fakeOptimizer{results: map[string]*imageopt.Result{
		"big.png": {File: prepared, WasOptimized: true, OriginalBytes: 500, FinalBytes: 80, MIMEType: "image/webp"},
	}}
	field := NewImageField(opt, smallLimits, nil)

	state := field.Select(context.Background(), fileOfSize("big.png", "image/png", 500))

	assert.Equal(t, ImageReady, state.Status)
	assert.True(t, state.WasOptimized)
	assert.Equal(t, int64(500), state.OriginalBytes)
	assert.Equal(t, int64(80), state.FinalBytes)
	assert.Same(t, prepared, field.Prepared())
	assert.Equal(t, "big.png", state.Original.Name)
}

func TestImageField_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cannot compress", &imageopt.Error{Code: imageopt.CodeCannotCompress},
			"This image is 2.0 MB. Max allowed is 100 B. Try cropping or choosing a smaller screenshot."},
		{"decode failed", &imageopt.Error{Code: imageopt.CodeDecodeFailed},
			"Couldn’t process this image. Please try a different file. (Max 100 B)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := &fakeOptimizer{errs: map[string]error{"big.png": tt.err}}
			field := NewImageField(opt, smallLimits, nil)

			state := field.Select(context.Background(), fileOfSize("big.png", "image/png", 2_000_000))

			assert.Equal(t, ImageError, state.Status)
			assert.Equal(t, tt.want, state.Message)
		})
	}
}

func TestImageField_StaleResultIsDiscarded(t *testing.T) {
	first := fileOfSize("first.png", "image/png", 500)
	second := fileOfSize("second.png", "image/png", 50)
	opt := &fakeOptimizer{
		gates: map[string]chan struct{}{"first.png": make(chan struct{})},
		results: map[string]*imageopt.Result{
			"first.png": {File: fileOfSize("first.webp", "image/webp", 80), WasOptimized: true, FinalBytes: 80},
		},
	}
	field := NewImageField(opt, smallLimits, nil)

	done := make(chan ImageState)
	go func() { done <- field.Select(context.Background(), first) }()

	require.Eventually(t, func() bool { return field.State().Status == ImageOptimizing }, time.Second, time.Millisecond)
	assert.False(t, field.CanSubmit())

	newer := field.Select(context.Background(), second)
	require.Equal(t, ImageReady, newer.Status)

	close(opt.gates["first.png"])
	stale := <-done

	assert.Equal(t, "second.png", stale.Original.Name)
	assert.Equal(t, "second.png", field.Prepared().Name)
}

func TestImageField_ClearInvalidatesRunningOptimization(t *testing.T) {
	opt := &fakeOptimizer{
		gates: map[string]chan struct{}{"big.png": make(chan struct{})},
		results: map[string]*imageopt.Result{
			"big.png": {File: fileOfSize("big.webp", "image/webp", 80), WasOptimized: true},
		},
	}
	field := NewImageField(opt, smallLimits, nil)

	done := make(chan struct{})
	go func() {
		field.Select(context.Background(), fileOfSize("big.png", "image/png", 500))
		close(done)
	}()
	require.Eventually(t, func() bool { return field.State().Status == ImageOptimizing }, time.Second, time.Millisecond)

	field.Clear()
	close(opt.gates["big.png"])
	<-done

	assert.Equal(t, ImageIdle, field.State().Status)
	assert.Nil(t, field.Prepared())
}

func TestImageField_ResetCallbackMayReadField(t *testing.T) {
	var field *ImageField
	var seen []ImageStatus
	field = NewImageField(&fakeOptimizer{}, smallLimits, func() {
		seen = append(seen, field.State().Status)
		_ = field.CanSubmit()
		_ = field.Prepared()
	})

	done := make(chan ImageState, 1)
	go func() {
		done <- field.Select(context.Background(), fileOfSize("a.png", "image/png", 10))
	}()

	select {
	case state := <-done:
		assert.Equal(t, ImageReady, state.Status)
		assert.Equal(t, []ImageStatus{ImageIdle}, seen)
	case <-time.After(2 * time.Second):
		t.Fatal("Select blocked while running the reset callback")
	}
}
