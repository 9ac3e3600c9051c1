package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculateEMA_ConstantConverges(t *testing.T) {
	ema, err := CalculateEMA(constant(100, 42.5), 20)
	require.NoError(t, err)
	for i, v := range ema {
		assert.InDelta(t, 42.5, v, 1e-9, "index %d", i)
	}
}

func TestCalculateEMA_SeededWithFirstValue(t *testing.T) {
	ema, err := CalculateEMA([]float64{10, 20, 30}, 3)
	require.NoError(t, err)
	// alpha = 0.5
	assert.InDelta(t, 10, ema[0], 1e-12)
	assert.InDelta(t, 15, ema[1], 1e-12)
	assert.InDelta(t, 22.5, ema[2], 1e-12)
}

func TestCalculateEMA_SkipsLeadingNaN(t *testing.T) {
	ema, err := CalculateEMA([]float64{math.NaN(), 4, 8}, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ema[0]))
	assert.InDelta(t, 4, ema[1], 1e-12)
	assert.InDelta(t, 6, ema[2], 1e-12)
}

func TestCalculateSMA_UndefinedBeforeWindow(t *testing.T) {
	sma, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2, sma[2], 1e-12)
	assert.InDelta(t, 3, sma[3], 1e-12)
	assert.InDelta(t, 4, sma[4], 1e-12)

	short, err := CalculateSMA([]float64{1, 2}, 3)
	require.NoError(t, err)
	assert.Len(t, short, 2)
	assert.True(t, math.IsNaN(short[1]))

	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestCalculateRSI_Bounds(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	rsi, err := CalculateRSI(barsFromCloses(closes), 14)
	require.NoError(t, err)
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be undefined", i)
	}
	for i := 14; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestCalculateRSI_OnlyGainsIs100(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi, err := CalculateRSI(barsFromCloses(closes), 14)
	require.NoError(t, err)
	for i := 14; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i])
	}
}

func TestCalculateRSI_FlatIs50(t *testing.T) {
	rsi, err := CalculateRSI(barsFromCloses(constant(40, 10)), 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi[len(rsi)-1])
}

func TestCalculateRSI_SimpleAverages(t *testing.T) {
	// alternating +2/-1 moves: avgGain and avgLoss over 4 deltas are 1.0 and 0.5
	closes := []float64{10, 12, 11, 13, 12}
	rsi, err := CalculateRSI(barsFromCloses(closes), 4)
	require.NoError(t, err)
	// RS = 2 -> RSI = 100 - 100/3
	assert.InDelta(t, 100-100.0/3, rsi[4], 1e-9)
}

func TestCalculateATR(t *testing.T) {
	bars := barsFromCloses([]float64{100, 102, 98})
	tr := CalculateTrueRange(bars)
	assert.InDelta(t, 2.0, tr[0], 1e-9)          // high - low
	assert.InDelta(t, 103.02-100.0, tr[1], 1e-9) // high vs previous close
	assert.InDelta(t, 102.0-97.02, tr[2], 1e-9)  // low vs previous close
	atr, err := CalculateATR(bars, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(atr[0]))
	assert.InDelta(t, (tr[1]+tr[2])/2, atr[2], 1e-9)
}

func TestCalculateMACD_FlatIsZero(t *testing.T) {
	res, err := CalculateMACD(barsFromCloses(constant(60, 50)), 12, 26, 9)
	require.NoError(t, err)
	for i := range res.MACD {
		assert.InDelta(t, 0, res.MACD[i], 1e-12)
		assert.InDelta(t, 0, res.Signal[i], 1e-12)
		assert.InDelta(t, 0, res.Histogram[i], 1e-12)
	}
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(seriesFromCloses(constant(10, 1)), DefaultParams())
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 10, insufficient.Have)
	assert.Equal(t, 30, insufficient.Need)
}

func TestCompute_MalformedCandle(t *testing.T) {
	s := seriesFromCloses(constant(40, 10))
	s.Candles[5].Close = math.NaN()
	_, err := Compute(s, DefaultParams())
	var dataErr *model.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, 5, dataErr.Index)

	s = seriesFromCloses(constant(40, 10))
	s.Candles[7].OpenTime = s.Candles[6].OpenTime
	_, err = Compute(s, DefaultParams())
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, "open_time", dataErr.Field)
}

func TestCompute_NoLookAhead(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 50 + 5*math.Cos(float64(i)/4) + float64(i)/10
	}
	full, err := Compute(seriesFromCloses(closes), DefaultParams())
	require.NoError(t, err)
	prefix, err := Compute(seriesFromCloses(closes[:50]), DefaultParams())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a, b := full.At(i), prefix.At(i)
		assertSame(t, a.EMAFast, b.EMAFast)
		assertSame(t, a.RSI, b.RSI)
		assertSame(t, a.MACDSignal, b.MACDSignal)
		assertSame(t, a.ATR, b.ATR)
		assertSame(t, a.VolumeMA, b.VolumeMA)
	}
}

func assertSame(t *testing.T, want, got float64) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got))
		return
	}
	assert.InDelta(t, want, got, 1e-9)
}

func TestIndicatorSet_LatestAndPrevious(t *testing.T) {
	set, err := Compute(seriesFromCloses(constant(40, 10)), DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 10, set.Latest().EMAFast, 1e-12)
	assert.InDelta(t, 10, set.Previous().EMASlow, 1e-12)
	assert.True(t, math.IsNaN(set.At(-1).RSI))
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	p := DefaultParams()
	p.ATRPeriod = 0
	assert.Error(t, p.Validate())
	p = DefaultParams()
	p.MACDFast = 30
	assert.Error(t, p.Validate())
}
