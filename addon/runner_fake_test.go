package addon

import (
	"context"

	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// fakeRunner returns a canned result per command path, recording every call.
type fakeRunner struct {
	calls   []executil.Command
	handler func(cmd executil.Command) (executil.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, cmd executil.Command) (executil.Result, error) {
	f.calls = append(f.calls, cmd)
	if err := ctx.Err(); err != nil {
		return executil.Result{}, err
	}
	return f.handler(cmd)
}

func buildCmd(path string, args ...string) BuildFunc {
	return func(pctx *Context) (executil.Command, func(), error) {
		return executil.Command{Path: path, Args: args}, nil, nil
	}
}
