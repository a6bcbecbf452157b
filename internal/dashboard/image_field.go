package dashboard

import (
	"context"
	"strings"
	"sync"

	"github.com/kozaktomas/portfolio/internal/imageopt"
)

// ImageStatus is the phase of the project image field.
type ImageStatus int

const (
	ImageIdle ImageStatus = iota
	ImageOptimizing
	ImageReady
	ImageError
)

func (s ImageStatus) String() string {
	switch s {
	case ImageOptimizing:
		return "optimizing"
	case ImageReady:
		return "ready"
	case ImageError:
		return "error"
	default:
		return "idle"
	}
}

// ImageState describes the selected image. Prepared is set only when ready.
type ImageState struct {
	Status        ImageStatus
	Original      *imageopt.File
	Prepared      *imageopt.File
	WasOptimized  bool
	OriginalBytes int64
	FinalBytes    int64
	MIMEType      string
	Message       string
}

// ImageOptimizer shrinks an image to fit opts.
type ImageOptimizer interface {
	Optimize(ctx context.Context, f *imageopt.File, opts imageopt.Options) (*imageopt.Result, error)
}

// ImageField prepares a project image before upload. Each Select or Clear
// starts a new request; an optimisation that finishes after a newer request
// started is discarded.
type ImageField struct {
	mu           sync.Mutex
	optimizer    ImageOptimizer
	opts         imageopt.Options
	requestID    uint64
	state        ImageState
	onResetError func()
}

// NewImageField creates an idle field. onResetError, if set, runs whenever a
// new file is chosen so the form can drop its previous error.
func NewImageField(optimizer ImageOptimizer, opts imageopt.Options, onResetError func()) *ImageField {
	return &ImageField{
		optimizer:    optimizer,
		opts:         opts.WithDefaults(),
		onResetError: onResetError,
	}
}

// State returns the current state.
func (f *ImageField) State() ImageState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Clear drops the selection and invalidates any running optimisation.
func (f *ImageField) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestID++
	f.state = ImageState{Status: ImageIdle}
}

// CanSubmit is false while optimising or after a failure.
func (f *ImageField) CanSubmit() bool {
	s := f.State().Status
	return s == ImageIdle || s == ImageReady
}

// Prepared returns the file to upload, or nil.
func (f *ImageField) Prepared() *imageopt.File {
	s := f.State()
	if s.Status != ImageReady {
		return nil
	}
	return s.Prepared
}

func readyState(original, prepared *imageopt.File, res *imageopt.Result) ImageState {
	return ImageState{
		Status:        ImageReady,
		Original:      original,
		Prepared:      prepared,
		WasOptimized:  res.WasOptimized,
		OriginalBytes: res.OriginalBytes,
		FinalBytes:    res.FinalBytes,
		MIMEType:      res.MIMEType,
	}
}

// Select handles a newly chosen file and returns the state it produced. When
// a newer request superseded this one, the current state is returned instead.
func (f *ImageField) Select(ctx context.Context, selected *imageopt.File) ImageState {
	f.mu.Lock()
	f.requestID++
	requestID := f.requestID
	f.mu.Unlock()

	// Runs unlocked so the callback may read the field.
	if f.onResetError != nil {
		f.onResetError()
	}

	f.mu.Lock()
	if requestID != f.requestID {
		defer f.mu.Unlock()
		return f.state
	}

	switch {
	case selected == nil:
		f.state = ImageState{Status: ImageIdle}
		defer f.mu.Unlock()
		return f.state
	case !strings.HasPrefix(selected.Type, "image/"):
		f.state = ImageState{Status: ImageError, Original: selected, Message: imageopt.UserMessage(
			&imageopt.Error{Code: imageopt.CodeNotImage}, selected.Size(), f.opts.MaxBytes)}
		defer f.mu.Unlock()
		return f.state
	case selected.Size() <= f.opts.MaxBytes:
		f.state = readyState(selected, selected, &imageopt.Result{
			OriginalBytes: selected.Size(),
			FinalBytes:    selected.Size(),
			MIMEType:      selected.Type,
		})
		defer f.mu.Unlock()
		return f.state
	}

	f.state = ImageState{Status: ImageOptimizing, Original: selected}
	f.mu.Unlock()

	res, err := f.optimizer.Optimize(ctx, selected, f.opts)

	f.mu.Lock()
	defer f.mu.Unlock()
	if requestID != f.requestID {
		return f.state
	}
	if err != nil {
		f.state = ImageState{
			Status:   ImageError,
			Original: selected,
			Message:  imageopt.UserMessage(err, selected.Size(), f.opts.MaxBytes),
		}
		return f.state
	}
	f.state = readyState(selected, res.File, res)
	return f.state
}
