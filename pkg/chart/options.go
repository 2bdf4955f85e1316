package chart

import (
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/ticks"
	"github.com/raykavin/chartcore/pkg/transform"
)

// Side is a price scale side
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Style holds the sizing constants of the chart. Colors are left to the
// renderer.
type Style struct {
	Padding         float64 `mapstructure:"padding"`
	AxisHeight      float64 `mapstructure:"axis_height"`
	AxisFontSize    float64 `mapstructure:"axis_font_size"`
	PriceAxisWidth  float64 `mapstructure:"price_axis_width"`
	HistogramRatio  float64 `mapstructure:"histogram_ratio"`
	RSIRatio        float64 `mapstructure:"rsi_ratio"`
	ToolbarHeight   float64 `mapstructure:"toolbar_height"`
	ToolbarIconSize float64 `mapstructure:"toolbar_icon_size"`
}

// DefaultStyle returns the stock chart metrics
func DefaultStyle() Style {
	return Style{
		Padding:         28,
		AxisHeight:      24,
		AxisFontSize:    12,
		PriceAxisWidth:  74,
		HistogramRatio:  0.2,
		RSIRatio:        0.25,
		ToolbarHeight:   28,
		ToolbarIconSize: 12,
	}
}

// TimeScaleOptions configure the horizontal axis
type TimeScaleOptions struct {
	BarSpacing        float64 `mapstructure:"bar_spacing"`
	MinBarSpacing     float64 `mapstructure:"min_bar_spacing"`
	MaxBarSpacing     float64 `mapstructure:"max_bar_spacing"`
	RightOffset       float64 `mapstructure:"right_offset"`
	RightOffsetPixels float64 `mapstructure:"right_offset_pixels"`
	FixLeftEdge       bool    `mapstructure:"fix_left_edge"`
	FixRightEdge      bool    `mapstructure:"fix_right_edge"`

	Visible             bool            `mapstructure:"visible"`
	BorderVisible       bool            `mapstructure:"border_visible"`
	TicksVisible        bool            `mapstructure:"ticks_visible"`
	TimeVisible         bool            `mapstructure:"time_visible"`
	SecondsVisible      bool            `mapstructure:"seconds_visible"`
	LabelMode           ticks.LabelMode `mapstructure:"label_mode"`
	TickMarkFormat      string          `mapstructure:"tick_mark_format"`
	TickMarkMaxLength   int             `mapstructure:"tick_mark_max_length"`
	UniformDistribution bool            `mapstructure:"uniform_distribution"`
	MinimumHeight       float64         `mapstructure:"minimum_height"`

	LockVisibleTimeRangeOnResize bool `mapstructure:"lock_visible_time_range_on_resize"`
	RightBarStaysOnScroll        bool `mapstructure:"right_bar_stays_on_scroll"`
	ShiftVisibleRangeOnNewBar    bool `mapstructure:"shift_visible_range_on_new_bar"`
}

// DefaultTimeScaleOptions returns a visible axis with 6px bars
func DefaultTimeScaleOptions() TimeScaleOptions {
	return TimeScaleOptions{
		BarSpacing:                6,
		MinBarSpacing:             0.5,
		Visible:                   true,
		BorderVisible:             true,
		SecondsVisible:            true,
		ShiftVisibleRangeOnNewBar: true,
	}
}

// LabelOptions converts the axis settings into tick label options
func (o TimeScaleOptions) LabelOptions() ticks.LabelOptions {
	return ticks.LabelOptions{
		Mode:           o.LabelMode,
		TimeVisible:    o.TimeVisible,
		SecondsVisible: o.SecondsVisible,
		TickMarkFormat: o.TickMarkFormat,
		MaxLength:      o.TickMarkMaxLength,
	}
}

// PriceScaleOptions configure one price axis
type PriceScaleOptions struct {
	Visible             bool              `mapstructure:"visible"`
	AutoScale           bool              `mapstructure:"auto_scale"`
	Mode                transform.Mode    `mapstructure:"mode"`
	Invert              bool              `mapstructure:"invert"`
	Margins             transform.Margins `mapstructure:"margins"`
	AlignLabels         bool              `mapstructure:"align_labels"`
	TicksVisible        bool              `mapstructure:"ticks_visible"`
	MinimumWidth        float64           `mapstructure:"minimum_width"`
	EntireTextOnly      bool              `mapstructure:"entire_text_only"`
	EnsureEdgeTickMarks bool              `mapstructure:"ensure_edge_tick_marks"`
}

// DefaultPriceScaleOptions returns a visible auto scaled normal axis
func DefaultPriceScaleOptions() PriceScaleOptions {
	return PriceScaleOptions{
		Visible:     true,
		AutoScale:   true,
		Mode:        transform.Normal,
		Margins:     transform.DefaultMargins(),
		AlignLabels: true,
	}
}

// HandleScale gates the zoom gestures
type HandleScale struct {
	MouseWheel                bool `mapstructure:"mouse_wheel"`
	Pinch                     bool `mapstructure:"pinch"`
	AxisPressedMouseMoveTime  bool `mapstructure:"axis_pressed_mouse_move_time"`
	AxisPressedMouseMovePrice bool `mapstructure:"axis_pressed_mouse_move_price"`
	AxisDoubleClickResetTime  bool `mapstructure:"axis_double_click_reset_time"`
	AxisDoubleClickResetPrice bool `mapstructure:"axis_double_click_reset_price"`
}

// HandleScroll gates the pan gestures
type HandleScroll struct {
	MouseWheel       bool `mapstructure:"mouse_wheel"`
	PressedMouseMove bool `mapstructure:"pressed_mouse_move"`
	HorzTouchDrag    bool `mapstructure:"horz_touch_drag"`
	VertTouchDrag    bool `mapstructure:"vert_touch_drag"`
}

// KineticScroll tells the input layer which devices keep scrolling after a
// release. The engine only stores it.
type KineticScroll struct {
	Touch bool `mapstructure:"touch"`
	Mouse bool `mapstructure:"mouse"`
}

// TrackingExitMode decides when tracking mode ends
type TrackingExitMode int

const (
	ExitOnNextTap TrackingExitMode = iota
	ExitOnTouchEnd
)

// TrackingMode lets touch users move the crosshair instead of panning
type TrackingMode struct {
	Enabled  bool             `mapstructure:"enabled"`
	ExitMode TrackingExitMode `mapstructure:"exit_mode"`
}

// Sensitivity scales gesture deltas into zoom factors
type Sensitivity struct {
	AxisDragTime  float64 `mapstructure:"axis_drag_time"`
	AxisDragPrice float64 `mapstructure:"axis_drag_price"`
	Wheel         float64 `mapstructure:"wheel"`
	Pinch         float64 `mapstructure:"pinch"`
}

// CrosshairMode selects how the crosshair snaps
type CrosshairMode int

const (
	CrosshairNormal CrosshairMode = iota
	CrosshairMagnet
	CrosshairMagnetOHLC
	CrosshairHidden
)

// CrosshairCenter is the marker drawn at the crosshair intersection
type CrosshairCenter int

const (
	CenterCross CrosshairCenter = iota
	CenterDot
	CenterNone
)

// CrosshairOptions configure crosshair snapping and appearance
type CrosshairOptions struct {
	Mode                    CrosshairMode   `mapstructure:"mode"`
	SnapToOHLC              bool            `mapstructure:"snap_to_ohlc"`
	SnapToSeries            bool            `mapstructure:"snap_to_series"`
	DoNotSnapToHiddenSeries bool            `mapstructure:"do_not_snap_to_hidden_series"`
	ShowVertical            bool            `mapstructure:"show_vertical"`
	ShowHorizontal          bool            `mapstructure:"show_horizontal"`
	LineWidth               float64         `mapstructure:"line_width"`
	LineStyle               LineStyle       `mapstructure:"line_style"`
	Center                  CrosshairCenter `mapstructure:"center"`
	CenterSize              float64         `mapstructure:"center_size"`
}

// snapping resolves the effective OHLC and series toggles for the mode
func (o CrosshairOptions) snapping() (ohlc, series bool) {
	switch o.Mode {
	case CrosshairMagnetOHLC:
		return true, false
	case CrosshairMagnet:
		return false, true
	case CrosshairHidden:
		return false, false
	default:
		return o.SnapToOHLC, o.SnapToSeries
	}
}

// TooltipPosition anchors the tooltip box
type TooltipPosition int

const (
	TooltipAuto TooltipPosition = iota
	TooltipTopLeft
	TooltipTopRight
	TooltipBottomLeft
	TooltipBottomRight
	TooltipFollow
)

// TooltipOptions hold the tooltip templates
type TooltipOptions struct {
	Enabled         bool            `mapstructure:"enabled"`
	Position        TooltipPosition `mapstructure:"position"`
	Format          string          `mapstructure:"format"`
	LineFormat      string          `mapstructure:"line_format"`
	HistogramFormat string          `mapstructure:"histogram_format"`
}

// Options is the full chart configuration
type Options struct {
	Style           Style             `mapstructure:"style"`
	TimeScale       TimeScaleOptions  `mapstructure:"time_scale"`
	LeftPriceScale  PriceScaleOptions `mapstructure:"left_price_scale"`
	RightPriceScale PriceScaleOptions `mapstructure:"right_price_scale"`
	HandleScale     HandleScale       `mapstructure:"handle_scale"`
	HandleScroll    HandleScroll      `mapstructure:"handle_scroll"`
	KineticScroll   KineticScroll     `mapstructure:"kinetic_scroll"`
	TrackingMode    TrackingMode      `mapstructure:"tracking_mode"`
	Sensitivity     Sensitivity       `mapstructure:"sensitivity"`
	Crosshair       CrosshairOptions  `mapstructure:"crosshair"`
	Tooltip         TooltipOptions    `mapstructure:"tooltip"`
}

// DefaultOptions returns the stock configuration: right axis only, every
// gesture enabled.
func DefaultOptions() Options {
	left := DefaultPriceScaleOptions()
	left.Visible = false

	return Options{
		Style:           DefaultStyle(),
		TimeScale:       DefaultTimeScaleOptions(),
		LeftPriceScale:  left,
		RightPriceScale: DefaultPriceScaleOptions(),
		HandleScale: HandleScale{
			MouseWheel:                true,
			Pinch:                     true,
			AxisPressedMouseMoveTime:  true,
			AxisPressedMouseMovePrice: true,
			AxisDoubleClickResetTime:  true,
			AxisDoubleClickResetPrice: true,
		},
		HandleScroll: HandleScroll{
			MouseWheel:       true,
			PressedMouseMove: true,
			HorzTouchDrag:    true,
			VertTouchDrag:    true,
		},
		KineticScroll: KineticScroll{Touch: true},
		TrackingMode:  TrackingMode{Enabled: true, ExitMode: ExitOnNextTap},
		Sensitivity: Sensitivity{
			AxisDragTime:  0.0025,
			AxisDragPrice: 0.0025,
			Wheel:         0.08,
			Pinch:         0.08,
		},
		Crosshair: CrosshairOptions{
			Mode:           CrosshairNormal,
			SnapToOHLC:     true,
			SnapToSeries:   true,
			ShowVertical:   true,
			ShowHorizontal: true,
			LineWidth:      1,
			LineStyle:      LineDashed,
			Center:         CenterCross,
			CenterSize:     5,
		},
		Tooltip: TooltipOptions{
			Enabled:         true,
			Position:        TooltipAuto,
			Format:          "{time}  O:{open} H:{high} L:{low} C:{close}",
			LineFormat:      "Line {series}: {value}",
			HistogramFormat: "Histogram {series}: {value}",
		},
	}
}

// priceScale returns the options of a side
func (o *Options) priceScale(side Side) *PriceScaleOptions {
	if side == SideLeft {
		return &o.LeftPriceScale
	}
	return &o.RightPriceScale
}

// layoutStyle converts the chart metrics into layout constants
func (o Options) layoutStyle() layout.Style {
	return layout.Style{
		Padding:           o.Style.Padding,
		AxisHeight:        o.Style.AxisHeight,
		PriceAxisWidth:    o.Style.PriceAxisWidth,
		HistogramRatio:    o.Style.HistogramRatio,
		ToolbarHeight:     o.Style.ToolbarHeight,
		TimeAxisVisible:   o.TimeScale.Visible,
		TimeAxisMinHeight: o.TimeScale.MinimumHeight,
		LeftAxisMinWidth:  o.LeftPriceScale.MinimumWidth,
		RightAxisMinWidth: o.RightPriceScale.MinimumWidth,
	}
}

// Option configures a Chart
type Option func(*Chart)

// WithOptions replaces the whole configuration
func WithOptions(options Options) Option {
	return func(c *Chart) {
		c.options = options
	}
}

// WithStyle sets the chart metrics
func WithStyle(style Style) Option {
	return func(c *Chart) {
		c.options.Style = style
	}
}

// WithTimeScale sets the time axis options
func WithTimeScale(options TimeScaleOptions) Option {
	return func(c *Chart) {
		c.options.TimeScale = options
	}
}

// WithPriceScale sets the options of one price axis
func WithPriceScale(side Side, options PriceScaleOptions) Option {
	return func(c *Chart) {
		*c.options.priceScale(side) = options
	}
}

// WithCrosshair sets the crosshair options
func WithCrosshair(options CrosshairOptions) Option {
	return func(c *Chart) {
		c.options.Crosshair = options
	}
}

// WithSensitivity sets the gesture sensitivities
func WithSensitivity(sensitivity Sensitivity) Option {
	return func(c *Chart) {
		c.options.Sensitivity = sensitivity
	}
}

// WithHandleScale sets which zoom gestures are honored
func WithHandleScale(handle HandleScale) Option {
	return func(c *Chart) {
		c.options.HandleScale = handle
	}
}

// WithHandleScroll sets which pan gestures are honored
func WithHandleScroll(handle HandleScroll) Option {
	return func(c *Chart) {
		c.options.HandleScroll = handle
	}
}

// WithTooltip sets the tooltip options
func WithTooltip(options TooltipOptions) Option {
	return func(c *Chart) {
		c.options.Tooltip = options
	}
}

// WithTrackingMode sets the touch tracking behavior
func WithTrackingMode(mode TrackingMode) Option {
	return func(c *Chart) {
		c.options.TrackingMode = mode
	}
}
