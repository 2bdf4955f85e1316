package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStyle() Style {
	return Style{
		Padding:         28,
		AxisHeight:      24,
		PriceAxisWidth:  74,
		HistogramRatio:  0.2,
		ToolbarHeight:   28,
		TimeAxisVisible: true,
	}
}

func TestCompute_HeightsSumToAvailable(t *testing.T) {
	style := testStyle()
	viewport := Viewport{Width: 1200, Height: 800}

	cases := [][]float64{
		{3},
		{3, 1},
		{3, 1, 1},
		{2.5, 0.7, 1.3, 0.5},
	}
	for _, weights := range cases {
		panels := make([]PanelSpec, 0, len(weights))
		for i, w := range weights {
			role := RoleIndicator
			if i == 0 {
				role = RoleMain
			}
			panels = append(panels, PanelSpec{ID: i + 1, Group: 1, Role: role, Weight: w, RightAxis: true})
		}

		out := Compute(panels, viewport, style)
		available := viewport.Height - 2*style.Padding - style.AxisHeight

		var sum float64
		for _, p := range out.Panels {
			require.GreaterOrEqual(t, p.Height, 1.0)
			sum += p.Height
		}
		assert.InDelta(t, available, sum, float64(len(weights)))
		require.Len(t, out.TimeAxes, 1)
		require.InDelta(t, out.Panels[len(out.Panels)-1].Bottom, out.TimeAxes[0].Top, 1e-9)
	}
}

func TestCompute_AxisWidthsAndHistogram(t *testing.T) {
	panels := []PanelSpec{
		{ID: 1, Group: 1, Role: RoleMain, Weight: 3, LeftAxis: false, RightAxis: true, Histogram: true, ContentVisible: true},
		{ID: 2, Group: 1, Role: RoleIndicator, Weight: 1, RightAxis: true, ContentVisible: true},
	}
	out := Compute(panels, Viewport{Width: 1000, Height: 680}, testStyle())

	main, ok := out.Main()
	require.True(t, ok)
	require.Equal(t, 28.0, main.PlotLeft)
	require.Equal(t, 1000.0-28-74, main.PlotRight)
	require.InDelta(t, 150*3, main.Height, 1e-9)
	require.InDelta(t, 90, main.HistHeight, 1e-9)
	require.InDelta(t, main.Top+360, main.MainBottom, 1e-9)
	require.True(t, main.InHistogram(main.Bottom-1))
	require.True(t, main.InMain(main.Top+1))

	rsi, ok := out.Panel(2)
	require.True(t, ok)
	require.Zero(t, rsi.HistHeight)
	require.Equal(t, main.Bottom, rsi.Top)

	require.Equal(t, AxisRight, main.AxisAt(990))
	require.Equal(t, AxisLeft, main.AxisAt(10))
	require.Equal(t, AxisNone, main.AxisAt(500))
}

func TestCompute_Collapsed(t *testing.T) {
	panels := []PanelSpec{
		{ID: 1, Group: 1, Role: RoleMain, Weight: 3, RightAxis: true},
		{ID: 2, Group: 1, Role: RoleIndicator, Weight: 1, Collapsed: true, RightAxis: true},
	}
	out := Compute(panels, Viewport{Width: 800, Height: 600}, testStyle())

	collapsed, _ := out.Panel(2)
	require.Equal(t, 28.0, collapsed.Height)

	main, _ := out.Main()
	require.InDelta(t, 600-56-24-28, main.Height, 1e-9)
}

func TestCompute_Groups(t *testing.T) {
	panels := []PanelSpec{
		{ID: 1, Group: 1, Role: RoleMain, Weight: 1, RightAxis: true},
		{ID: 2, Group: 2, Role: RoleIndicator, Weight: 1, LeftAxis: true},
	}
	out := Compute(panels, Viewport{Width: 800, Height: 600}, testStyle())

	require.Len(t, out.TimeAxes, 2)
	second, _ := out.Panel(2)
	first, _ := out.Panel(1)
	axis, ok := out.TimeAxis(1)
	require.True(t, ok)
	require.Equal(t, axis.Bottom, second.Top)
	require.Equal(t, first.Bottom, axis.Top)
	require.Equal(t, 28.0+74, second.PlotLeft)
	require.Equal(t, 800.0-28, second.PlotRight)

	hit, ok := out.TimeAxisAt(axis.Top + 2)
	require.True(t, ok)
	require.Equal(t, 1, hit.Group)
	require.False(t, out.Adjacent(1, 2))
}

func TestCompute_DegenerateViewport(t *testing.T) {
	panels := []PanelSpec{{ID: 1, Group: 1, Role: RoleMain, Weight: 3, RightAxis: true}}
	out := Compute(panels, Viewport{}, testStyle())
	require.False(t, out.Valid())

	for _, p := range out.Panels {
		require.GreaterOrEqual(t, p.Height, 1.0)
		require.GreaterOrEqual(t, p.PlotWidth, 1.0)
	}
}

func TestChartLayout_ResizeHandleAt(t *testing.T) {
	panels := []PanelSpec{
		{ID: 1, Group: 1, Role: RoleMain, Weight: 3, RightAxis: true},
		{ID: 2, Group: 1, Role: RoleIndicator, Weight: 1, RightAxis: true},
	}
	out := Compute(panels, Viewport{Width: 800, Height: 652}, testStyle())
	main, _ := out.Main()

	handle, ok := out.ResizeHandleAt(main.Bottom+3, 4)
	require.True(t, ok)
	require.Equal(t, ResizeHandle{Upper: 1, Lower: 2}, handle)

	_, ok = out.ResizeHandleAt(main.Bottom+10, 4)
	require.False(t, ok)
	require.True(t, out.Adjacent(1, 2))
	require.False(t, out.Adjacent(2, 1))
}

func TestResizeWeights(t *testing.T) {
	// 100 px per weight unit, floor is 28 px
	upper, lower, ok := ResizeWeights(3, 1, 50, 100, 28)
	require.True(t, ok)
	require.InDelta(t, 3.5, upper, 1e-9)
	require.InDelta(t, 0.5, lower, 1e-9)

	upper, lower, ok = ResizeWeights(3, 1, 500, 100, 28)
	require.True(t, ok)
	require.InDelta(t, 0.28, lower, 1e-9)
	require.InDelta(t, 3.72, upper, 1e-9)

	upper, lower, ok = ResizeWeights(3, 1, -1000, 100, 28)
	require.True(t, ok)
	require.InDelta(t, 0.28, upper, 1e-9)
	require.InDelta(t, 3.72, lower, 1e-9)

	_, _, ok = ResizeWeights(3, 1, 0, 100, 28)
	require.False(t, ok)
}

func TestUnitHeight(t *testing.T) {
	panels := []PanelSpec{
		{ID: 1, Group: 1, Weight: 3},
		{ID: 2, Group: 1, Weight: 1},
	}
	require.InDelta(t, (652.0-56-24)/4, UnitHeight(panels, 652, testStyle()), 1e-9)

	allCollapsed := []PanelSpec{{ID: 1, Group: 1, Weight: 3, Collapsed: true}}
	require.Zero(t, UnitHeight(allCollapsed, 652, testStyle()))
}
