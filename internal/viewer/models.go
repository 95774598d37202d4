package viewer

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/pipeline"
	"github.com/Faultbox/xviewer/internal/loader"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// decoded is the result of a background decode waiting for upload.
type decoded struct {
	model *wexbim.Model
	tag   any
	src   string
	err   error
}

func checkSource(src any) error {
	switch src.(type) {
	case string, []byte, io.Reader:
		return nil
	}
	return fmt.Errorf("model source %s: %w", loader.Describe(src), errs.ErrInvalidArgument)
}

// Load fetches, decodes and uploads a model. src is a URL, data URL or
// file path string, a []byte or an io.Reader. It returns the new model ID;
// the loaded event has fired by the time it returns.
func (v *Viewer) Load(ctx context.Context, src any, tag any) (int, error) {
	if err := checkSource(src); err != nil {
		return 0, err
	}
	m, err := v.loader.Load(ctx, src)
	if err != nil {
		return 0, err
	}
	return v.Add(m, tag)
}

// Add uploads an already decoded model.
func (v *Viewer) Add(m *wexbim.Model, tag any) (int, error) {
	if m == nil {
		return 0, fmt.Errorf("nil model: %w", errs.ErrInvalidArgument)
	}
	if err := v.reg.CanAdd(len(m.Products)); err != nil {
		return 0, err
	}
	buf, err := v.dev.Upload(m)
	if err != nil {
		return 0, fmt.Errorf("upload model: %w", err)
	}
	h, err := v.reg.Add(m, buf, tag)
	if err != nil {
		buf.Release()
		return 0, err
	}
	return h.ID, nil
}

// LoadAsync decodes a model on a background goroutine. The upload happens
// on the next Pump or Tick, which fires loaded on success and error on
// failure. Only the source type is checked synchronously.
func (v *Viewer) LoadAsync(ctx context.Context, src any, tag any) error {
	if err := checkSource(src); err != nil {
		return err
	}
	name := loader.Describe(src)
	v.decodes.Add(1)
	go func() {
		defer v.decodes.Done()
		m, err := v.loader.Load(ctx, src)
		v.mu.Lock()
		v.pending = append(v.pending, decoded{model: m, tag: tag, src: name, err: err})
		v.mu.Unlock()
	}()
	return nil
}

// Wait blocks until every decode started by LoadAsync has finished. The
// models still need a Pump to be uploaded.
func (v *Viewer) Wait() {
	v.decodes.Wait()
}

// Pump uploads models decoded in the background and returns how many were
// added.
func (v *Viewer) Pump() int {
	v.mu.Lock()
	ready := v.pending
	v.pending = nil
	v.mu.Unlock()

	added := 0
	for _, d := range ready {
		err := d.err
		if err == nil {
			_, err = v.Add(d.model, d.tag)
		}
		if err != nil {
			v.log.Error("load failed", zap.String("source", d.src), zap.Error(err))
			v.bus.Fire(events.Error{Err: err, Tag: d.tag})
			continue
		}
		added++
	}
	return added
}

// Unload releases a model. It fails with ErrPreconditionViolation while a
// pass is being recorded, for example from a plugin hook.
func (v *Viewer) Unload(modelID int) error {
	if v.pipe.Busy() {
		return fmt.Errorf("unload model %d during a draw: %w", modelID, errs.ErrPreconditionViolation)
	}
	return v.reg.Unload(modelID)
}

// Models returns the IDs of the loaded models in load order.
func (v *Viewer) Models() []int {
	hs := v.reg.Handles()
	ids := make([]int, len(hs))
	for i, h := range hs {
		ids[i] = h.ID
	}
	return ids
}

// Tag returns the tag a model was loaded with.
func (v *Viewer) Tag(modelID int) (any, error) {
	h, err := v.reg.Get(modelID)
	if err != nil {
		return nil, err
	}
	return h.Tag, nil
}

// Start makes a model active again, or every model for handle.All, and
// starts the draw loop.
func (v *Viewer) Start(modelID int) error {
	if err := v.reg.Start(modelID); err != nil {
		return err
	}
	v.pipe.Start()
	return nil
}

// Stop deactivates a model so it is no longer drawn, or pauses the draw
// loop for handle.All. The last frame stays on screen.
func (v *Viewer) Stop(modelID int) error {
	if modelID == handle.All {
		v.pipe.Stop()
		return nil
	}
	return v.reg.Stop(modelID)
}

// StartAll activates every model and starts the draw loop.
func (v *Viewer) StartAll() {
	v.reg.StartAll()
	v.pipe.Start()
}

// StopAll deactivates every model and pauses the draw loop.
func (v *Viewer) StopAll() {
	v.reg.StopAll()
	v.pipe.Stop()
}

// StartPicking makes a model take part in picking again.
func (v *Viewer) StartPicking(modelID int) error { return v.reg.StartPicking(modelID) }

// StopPicking makes picking ignore a model.
func (v *Viewer) StopPicking(modelID int) error { return v.reg.StopPicking(modelID) }

// IsPickable reports whether a model is loaded and pickable.
func (v *Viewer) IsPickable(modelID int) bool { return v.reg.IsPickable(modelID) }

// IsModelOn reports whether a model is loaded and active.
func (v *Viewer) IsModelOn(modelID int) bool { return v.reg.IsModelOn(modelID) }

// IsModelLoaded reports whether a model ID is in use.
func (v *Viewer) IsModelLoaded(modelID int) bool { return v.reg.IsModelLoaded(modelID) }

// IsProductInModel reports whether productID belongs to modelID.
func (v *Viewer) IsProductInModel(productID int32, modelID int) bool {
	return v.reg.IsProductInModel(productID, modelID)
}

// Running reports whether the draw loop is running.
func (v *Viewer) Running() bool { return v.pipe.State() == pipeline.Running }
