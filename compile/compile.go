// Package compile runs the whole lowering pipeline: a source IR root circuit
// becomes a layered circuit plus the witness generation circuit that fills
// its first layer.
package compile

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/builder"
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/dest"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintless"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintnormalized"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layering"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

type compiler struct {
	opt Options
	log zerolog.Logger
}

// Compile lowers r. The witness generation circuit takes the inputs of r and
// outputs the first layer of the layered circuit. Problems with r are
// reported as *utils.UserError, broken stage invariants as
// *utils.InternalError.
func Compile(r *source.RootCircuit, opts ...Option) (*hintnormalized.RootCircuit, *layered.RootCircuit, error) {
	opt := defaultOptions()
	for _, o := range opts {
		if err := o(&opt); err != nil {
			return nil, nil, err
		}
	}
	if opt.MulFanoutLimit < 2 {
		return nil, nil, utils.NewUserError("mul fanout limit must be at least 2, got %d", opt.MulFanoutLimit)
	}
	if opt.MaxOptimizationRounds < 1 {
		return nil, nil, utils.NewUserError("max optimization rounds must be positive, got %d", opt.MaxOptimizationRounds)
	}
	if r == nil {
		return nil, nil, utils.NewUserError("nil root circuit")
	}
	if opt.Field != nil && r.Field != nil && opt.Field.Field().Cmp(r.Field.Field()) != 0 {
		return nil, nil, utils.NewUserError("circuit field %s does not match the requested field %s",
			r.Field.Field().String(), opt.Field.Field().String())
	}
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}
	c := &compiler{opt: opt, log: logger.Logger()}
	return c.compile(r)
}

func validated[S common.Stage](stage string, r *common.RootCircuit[S], err error) (*common.RootCircuit[S], error) {
	if err == nil {
		err = r.Validate()
	}
	if err != nil {
		return nil, utils.AsInternal(stage, err)
	}
	return r, nil
}

func (c *compiler) compile(r *source.RootCircuit) (*hintnormalized.RootCircuit, *layered.RootCircuit, error) {
	rounds := c.opt.MaxOptimizationRounds

	src, m1, err := r.Optimize(true, rounds)
	if src, err = validated("source optimization", src, err); err != nil {
		return nil, nil, err
	}
	c.log.Debug().Int("size", src.SizeMetric()).Msg("source optimized")

	hn, err := builder.HintNormalize(src)
	if err != nil && utils.IsUserError(err) {
		return nil, nil, err
	}
	if hn, err = validated("hint normalization", hn, err); err != nil {
		return nil, nil, err
	}
	hn, m2, err := hn.Optimize(false, rounds)
	if hn, err = validated("hint normalized optimization", hn, err); err != nil {
		return nil, nil, err
	}

	var hl *hintless.RootCircuit
	if hl, err = validated("hint removal", hintnormalized.RemoveHints(hn), nil); err != nil {
		return nil, nil, err
	}
	wg, err := validated("hint export", hintnormalized.ExportHints(hn), nil)
	if err != nil {
		return nil, nil, err
	}
	hl, m3, err := hl.Optimize(true, rounds)
	if hl, err = validated("hintless optimization", hl, err); err != nil {
		return nil, nil, err
	}

	d, err := validated("final build", builder.FinalBuild(hl), nil)
	if err != nil {
		return nil, nil, err
	}
	d, m4, err := d.Optimize(false, rounds)
	if d, err = validated("dest optimization", d, err); err != nil {
		return nil, nil, err
	}
	d, err = dest.SolveMulFanoutLimit(d, c.opt.MulFanoutLimit)
	if d, err = validated("mul fanout limit", d, err); err != nil {
		return nil, nil, err
	}
	if d, err = validated("constraint export", dest.ExportConstraints(d), nil); err != nil {
		return nil, nil, err
	}
	d, m5, err := d.Optimize(false, rounds)
	if d, err = validated("final optimization", d, err); err != nil {
		return nil, nil, err
	}

	lc, m6, err := layering.Compile(d, layering.Config{AllowInputReorder: c.opt.AllowInputReorder})
	if err == nil {
		err = layered.Validate(lc)
	}
	if err == nil {
		err = layered.ValidateInitialized(lc)
	}
	if err != nil {
		return nil, nil, utils.AsInternal("layering", err)
	}
	lc = layered.Optimize(lc)
	if err = layered.Validate(lc); err == nil {
		err = layered.ValidateInitialized(lc)
	}
	if err != nil {
		return nil, nil, utils.AsInternal("layered optimization", err)
	}
	c.log.Debug().Int("segments", len(lc.Circuits)).Msg("layered circuit optimized")

	// the witness generation circuit outputs the hintless inputs; move them
	// to their slots in the first layer
	toLayer, err := composeAll(m3, m4, m5, m6)
	if err != nil {
		return nil, nil, utils.AsInternal("input mapping", err)
	}
	wg, err = wg.ScatterRootOutputs(toLayer)
	if wg, err = validated("witness output layout", wg, err); err != nil {
		return nil, nil, err
	}
	wg, mw, err := wg.Optimize(false, rounds)
	if wg, err = validated("witness optimization", wg, err); err != nil {
		return nil, nil, err
	}
	fromSource, err := composeAll(m1, m2, mw)
	if err != nil {
		return nil, nil, utils.AsInternal("input mapping", err)
	}
	wg, err = wg.GatherRootInputs(fromSource)
	if wg, err = validated("witness input layout", wg, err); err != nil {
		return nil, nil, err
	}

	stats := lc.GetStats()
	c.log.Info().
		Int("nbLayer", stats.NbLayer).
		Int("nbCircuit", stats.NbCircuit).
		Int("nbInput", stats.NbInput).
		Int("nbExpandedMul", stats.NbExpandedMul).
		Int("nbExpandedAdd", stats.NbExpandedAdd).
		Int("nbExpandedCst", stats.NbExpandedCst).
		Int("maxMulFanout", stats.MaxMulFanout).
		Int("totalCost", stats.TotalCost).
		Msg("compiled")
	return wg, lc, nil
}

func composeAll(ms ...*inputmapping.InputMapping) (*inputmapping.InputMapping, error) {
	res := ms[0]
	for _, m := range ms[1:] {
		var err error
		if res, err = res.Compose(m); err != nil {
			return nil, err
		}
	}
	return res, nil
}
