package llm

import "context"

// ModelState is what a provider knows about its model being ready to serve.
type ModelState int

const (
	ModelReady ModelState = iota
	ModelMissing
	ModelPulling
)

func (s ModelState) String() string {
	switch s {
	case ModelReady:
		return "ready"
	case ModelMissing:
		return "missing"
	case ModelPulling:
		return "pulling"
	default:
		return "unknown"
	}
}

// PullProgress receives download progress in bytes. total is 0 while the
// server has not reported a size yet.
type PullProgress func(completed, total int64)

// Provisioner is implemented by providers whose model lives on this machine
// and may have to be downloaded before the first request.
type Provisioner interface {
	ModelState(ctx context.Context) (ModelState, error)

	// Pull downloads the model, blocking until it is ready or ctx ends.
	Pull(ctx context.Context, progress PullProgress) error
}

// AsProvisioner finds a Provisioner underneath any decorators wrapping p.
// Cloud providers have nothing to provision and return false.
func AsProvisioner(p Provider) (Provisioner, bool) {
	for p != nil {
		if pv, ok := p.(Provisioner); ok {
			return pv, true
		}
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil, false
		}
		p = u.Unwrap()
	}
	return nil, false
}
