package pipeline

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"cleverdash/internal/chain"
	"cleverdash/internal/logging"
	"cleverdash/internal/metrics"
	"cleverdash/internal/pricefeed"
	"cleverdash/internal/types"
)

// Metric keys, stable across releases; used by the JSON API and Prometheus labels.
const (
	KeyLatestBlock      = "latest_block"
	KeyGasPrice         = "gas_price_gwei"
	KeyNativePrice      = "eth_price_usd"
	KeyCLevCVXSupply    = "clevcvx_total_supply"
	KeyFurnaceShare     = "clevcvx_furnace_share"
	KeyCurveShare       = "clevcvx_curve_share"
	KeyPoolBalances     = "curve_pool_balances"
	KeyPoolCVXShare     = "curve_pool_cvx_share"
	KeyPoolCLevCVXShare = "curve_pool_clevcvx_share"
	KeyCRVPrice         = "crv_price_usd"
	KeyCVXPrice         = "cvx_price_usd"
	KeyCVXCRVRatio      = "cvx_crv_ratio"
	KeyCVXLocked        = "cvx_locked"
	KeyDailyCVX         = "daily_cvx"
)

// Options tune a Pipeline.
type Options struct {
	// PinBlock reads every contract at the block observed at the start of a snapshot.
	PinBlock bool
	// MaxParallel bounds the number of sections evaluated concurrently.
	MaxParallel int
	// SupplyPrecision is the compact precision for supply and pool figures.
	SupplyPrecision int
	// AmountPrecision is the compact precision for locked and daily amounts.
	AmountPrecision int
}

// DefaultOptions pin reads and render supplies whole, amounts to two places.
func DefaultOptions() Options {
	return Options{PinBlock: true, MaxParallel: 4, SupplyPrecision: 0, AmountPrecision: 2}
}

// Pipeline turns raw on-chain readings into dashboard metrics.
// It holds no state between snapshots.
type Pipeline struct {
	reader    chain.Reader
	prices    pricefeed.Source
	contracts Contracts
	opts      Options
	metrics   metrics.Provider
	logger    logging.Logger
}

func New(reader chain.Reader, prices pricefeed.Source, contracts Contracts, opts Options, prov metrics.Provider, logger logging.Logger) *Pipeline {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	if prov == nil {
		prov = metrics.Noop{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Pipeline{
		reader:    reader,
		prices:    prices,
		contracts: contracts,
		opts:      opts,
		metrics:   prov,
		logger:    logger,
	}
}

// sectionInputs are read once, before sections fan out.
type sectionInputs struct {
	view      *View
	block     uint64
	blockErr  error
	nativeUSD float64
	priceErr  error
}

type sectionBuilder func(ctx context.Context, in *sectionInputs) Section

// Snapshot computes every dashboard metric from fresh reads. A failing read only
// marks the metrics that depend on it as unavailable.
func (p *Pipeline) Snapshot(ctx context.Context) *Snapshot {
	start := time.Now()
	snap := &Snapshot{TakenAt: start.UTC()}

	in := &sectionInputs{}
	in.block, in.blockErr = p.reader.BlockNumber(ctx)
	var pin *big.Int
	if in.blockErr == nil {
		snap.Block = in.block
		if p.opts.PinBlock {
			pin = new(big.Int).SetUint64(in.block)
			snap.Pinned = true
		}
	} else {
		p.logger.Warnf("block number unavailable, reading at latest: %v", in.blockErr)
	}
	in.view = NewView(p.reader, pin)

	in.nativeUSD, in.priceErr = p.prices.NativeUSD(ctx)
	if in.priceErr == nil {
		snap.NativeUSD = in.nativeUSD
	}

	builders := []sectionBuilder{
		p.chainSection,
		p.supplySection,
		p.poolSection,
		p.priceSection,
		p.lockerSection,
	}
	snap.Sections = make([]Section, len(builders))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxParallel)
	for i, build := range builders {
		i, build := i, build
		g.Go(func() error {
			snap.Sections[i] = build(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	p.record(snap, time.Since(start))
	return snap
}

func (p *Pipeline) record(snap *Snapshot, took time.Duration) {
	for _, sec := range snap.Sections {
		for _, m := range sec.Metrics {
			if m.Err != nil {
				p.logger.Warnf("metric %s unavailable: %v", m.Key, m.Err)
				p.metrics.IncMetricFailure(m.Key, types.Kind(m.Err))
				continue
			}
			p.metrics.SetMetricValue(m.Key, m.Value.InexactFloat64())
		}
	}
	if snap.Block > 0 {
		p.metrics.SetSnapshotBlock(snap.Block)
	}
	p.metrics.ObserveSnapshot(took.Seconds())
	p.logger.Debugf("snapshot at block %d took %v (%d unavailable)", snap.Block, took, len(snap.Failed()))
}

func (p *Pipeline) chainSection(ctx context.Context, in *sectionInputs) Section {
	sec := Section{Title: "Ethereum"}

	if in.blockErr != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyLatestBlock, "Latest Block", in.blockErr))
	} else {
		sec.Metrics = append(sec.Metrics, newMetric(KeyLatestBlock, "Latest Block",
			decimal.NewFromBigInt(new(big.Int).SetUint64(in.block), 0), formatBlock(in.block)))
	}

	if wei, err := p.reader.GasPrice(ctx); err != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyGasPrice, "Gas Price", err))
	} else {
		gwei := Scale(wei, 9)
		sec.Metrics = append(sec.Metrics, newMetric(KeyGasPrice, "Gas Price", gwei, Gwei(gwei)))
	}

	if in.priceErr != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyNativePrice, "ETH Price", in.priceErr))
	} else {
		usd := decimal.NewFromFloat(in.nativeUSD)
		sec.Metrics = append(sec.Metrics, newMetric(KeyNativePrice, "ETH Price", usd, USD(usd)))
	}
	return sec
}

func (p *Pipeline) supplySection(ctx context.Context, in *sectionInputs) Section {
	c := p.contracts
	sec := Section{Title: "clevCVX Supply"}

	total, err := in.view.TotalSupply(ctx, c.CLevCVX)
	if err != nil {
		return Section{Title: sec.Title, Metrics: []Metric{
			failedMetric(KeyCLevCVXSupply, "Total", err),
			failedMetric(KeyFurnaceShare, "Furnace", err),
			failedMetric(KeyCurveShare, "Curve Pool", err),
		}}
	}
	sec.Metrics = append(sec.Metrics, newMetric(KeyCLevCVXSupply, "Total", total, Compact(total, p.opts.SupplyPrecision)))

	holders := []struct {
		key, label string
		holder     chain.ContractRef
	}{
		{KeyFurnaceShare, "Furnace", c.Furnace},
		{KeyCurveShare, "Curve Pool", c.CurvePool},
	}
	for _, h := range holders {
		share, err := p.shareOf(ctx, in.view, h.holder, total)
		if err != nil {
			sec.Metrics = append(sec.Metrics, failedMetric(h.key, h.label, err))
			continue
		}
		sec.Metrics = append(sec.Metrics, newMetric(h.key, h.label, share, Percent(share)))
	}
	return sec
}

// shareOf reuses an already-read total supply.
func (p *Pipeline) shareOf(ctx context.Context, view *View, holder chain.ContractRef, total decimal.Decimal) (decimal.Decimal, error) {
	balance, err := view.BalanceOf(ctx, p.contracts.CLevCVX, holder.Address)
	if err != nil {
		return decimal.Zero, err
	}
	return Share(balance, total)
}

func (p *Pipeline) poolSection(ctx context.Context, in *sectionInputs) Section {
	c := p.contracts
	sec := Section{Title: "clevCVX/CVX Pool"}

	comp, err := in.view.PoolComposition(ctx, c.CVX, c.CLevCVX, c.CurvePool.Address)
	if err != nil {
		// An empty pool still has displayable balances.
		if errors.Is(err, types.ErrDivisionByZero) {
			sec.Metrics = append(sec.Metrics, newMetric(KeyPoolBalances, "CVX + clevCVX", decimal.Zero, p.poolBalances(comp)))
		} else {
			sec.Metrics = append(sec.Metrics, failedMetric(KeyPoolBalances, "CVX + clevCVX", err))
		}
		sec.Metrics = append(sec.Metrics,
			failedMetric(KeyPoolCVXShare, "CVX %", err),
			failedMetric(KeyPoolCLevCVXShare, "clevCVX %", err),
		)
		return sec
	}
	sec.Metrics = append(sec.Metrics,
		newMetric(KeyPoolBalances, "CVX + clevCVX", comp.Total(), p.poolBalances(comp)),
		newMetric(KeyPoolCVXShare, "CVX %", comp.ShareA, Percent(comp.ShareA)),
		newMetric(KeyPoolCLevCVXShare, "clevCVX %", comp.ShareB, Percent(comp.ShareB)),
	)
	return sec
}

func (p *Pipeline) poolBalances(comp Composition) string {
	return Compact(comp.BalanceA, p.opts.SupplyPrecision) + " + " + Compact(comp.BalanceB, p.opts.SupplyPrecision)
}

func (p *Pipeline) priceSection(ctx context.Context, in *sectionInputs) Section {
	c := p.contracts
	sec := Section{Title: "CRV and CVX"}

	crv, crvErr := in.view.OraclePrice(ctx, c.CRVETHPool)
	cvx, cvxErr := in.view.OraclePrice(ctx, c.CVXETHPool)

	sec.Metrics = append(sec.Metrics,
		p.usdMetric(KeyCRVPrice, "CRV Price", crv, crvErr, in),
		p.usdMetric(KeyCVXPrice, "CVX Price", cvx, cvxErr, in),
	)

	ratioErr := cvxErr
	if ratioErr == nil {
		ratioErr = crvErr
	}
	if ratioErr != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyCVXCRVRatio, "CVX/CRV Ratio", ratioErr))
		return sec
	}
	ratio, err := PriceRatio(cvx, crv)
	if err != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyCVXCRVRatio, "CVX/CRV Ratio", err))
		return sec
	}
	sec.Metrics = append(sec.Metrics, newMetric(KeyCVXCRVRatio, "CVX/CRV Ratio", ratio, ratio.StringFixed(2)))
	return sec
}

func (p *Pipeline) usdMetric(key, label string, nativePrice decimal.Decimal, readErr error, in *sectionInputs) Metric {
	if readErr != nil {
		return failedMetric(key, label, readErr)
	}
	if in.priceErr != nil {
		return failedMetric(key, label, in.priceErr)
	}
	usd := ToUSD(nativePrice, in.nativeUSD)
	return newMetric(key, label, usd, USD(usd))
}

func (p *Pipeline) lockerSection(ctx context.Context, in *sectionInputs) Section {
	c := p.contracts
	sec := Section{Title: "CLever CVX"}

	if locked, err := in.view.LockedTotal(ctx, c.Locker); err != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyCVXLocked, "CVX Locked", err))
	} else {
		sec.Metrics = append(sec.Metrics, newMetric(KeyCVXLocked, "CVX Locked", locked, Compact(locked, p.opts.AmountPrecision)))
	}

	if daily, err := in.view.DailyAccrualRate(ctx, c.Furnace); err != nil {
		sec.Metrics = append(sec.Metrics, failedMetric(KeyDailyCVX, "Daily CVX", err))
	} else {
		sec.Metrics = append(sec.Metrics, newMetric(KeyDailyCVX, "Daily CVX", daily, Compact(daily, p.opts.AmountPrecision)))
	}
	return sec
}
