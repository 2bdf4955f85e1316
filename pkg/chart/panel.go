package chart

import (
	"fmt"
	"math"
	"slices"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/scale"
	"github.com/samber/lo"
)

const (
	mainPanelID      PanelID = 1
	defaultGroupID   GroupID = 1
	mainPanelWeight          = 3.0
	minIndicatorSize         = 0.5
	rsiTitle                 = "RSI"
)

// PanelID identifies a panel for the lifetime of a chart
type PanelID int

// GroupID identifies a time scale group
type GroupID int

type panel struct {
	id     PanelID
	group  GroupID
	role   layout.Role
	parent *PanelID
	title  string
	weight float64

	contentVisible bool
	collapsed      bool

	left         scale.PriceScaleState
	right        scale.PriceScaleState
	leftVisible  bool
	rightVisible bool

	series    []SeriesID
	histogram bool
}

func (p *panel) state(side Side) *scale.PriceScaleState {
	if side == SideLeft {
		return &p.left
	}
	return &p.right
}

// drawn reports whether the panel content takes part in scaling and drawing
func (p *panel) drawn() bool {
	return p.contentVisible && !p.collapsed
}

// timeGroup is a set of panels sharing one time scale
type timeGroup struct {
	id        GroupID
	scale     *scale.TimeScale
	plotWidth float64
	hasData   bool

	// plot width of the last frame, 0 before the first one
	framedWidth float64
}

// rsiPanel is the bounded [0,100] oscillator panel
type rsiPanel struct {
	panel   PanelID
	title   string
	data    core.Series[core.LinePoint]
	state   scale.PriceScaleState
	options PriceScaleOptions
	color   core.Color
}

// PanelInfo is a read only snapshot of a panel
type PanelInfo struct {
	ID             PanelID
	Group          GroupID
	Role           layout.Role
	Parent         *PanelID
	Title          string
	Weight         float64
	ContentVisible bool
	Collapsed      bool
	LeftVisible    bool
	RightVisible   bool
	Histogram      bool
	Series         []SeriesID
}

func (p *panel) info() PanelInfo {
	return PanelInfo{
		ID:             p.id,
		Group:          p.group,
		Role:           p.role,
		Parent:         p.parent,
		Title:          p.title,
		Weight:         p.weight,
		ContentVisible: p.contentVisible,
		Collapsed:      p.collapsed,
		LeftVisible:    p.leftVisible,
		RightVisible:   p.rightVisible,
		Histogram:      p.histogram,
		Series:         slices.Clone(p.series),
	}
}

func newMainPanel() *panel {
	return &panel{
		id:             mainPanelID,
		group:          defaultGroupID,
		role:           layout.RoleMain,
		title:          "Main",
		weight:         mainPanelWeight,
		contentVisible: true,
		left:           scale.NewPriceScaleState(),
		right:          scale.NewPriceScaleState(),
		leftVisible:    true,
		rightVisible:   true,
		histogram:      true,
	}
}

// Panels returns the panels in display order
func (c *Chart) Panels() []PanelInfo {
	return lo.Map(c.panels, func(p *panel, _ int) PanelInfo { return p.info() })
}

// Panel returns a snapshot of one panel
func (c *Chart) Panel(id PanelID) (PanelInfo, bool) {
	p, ok := c.panel(id)
	if !ok {
		return PanelInfo{}, false
	}
	return p.info(), true
}

// MainPanel is the id of the main price panel
func (c *Chart) MainPanel() PanelID {
	if len(c.panels) == 0 {
		return mainPanelID
	}
	return c.panels[0].id
}

func (c *Chart) panel(id PanelID) (*panel, bool) {
	return lo.Find(c.panels, func(p *panel) bool { return p.id == id })
}

func (c *Chart) group(id GroupID) (*timeGroup, bool) {
	return lo.Find(c.groups, func(g *timeGroup) bool { return g.id == id })
}

// AddTimeScaleGroup creates a new independent time scale and returns its id
func (c *Chart) AddTimeScaleGroup() GroupID {
	id := c.nextGroup
	c.nextGroup++
	c.groups = append(c.groups, &timeGroup{id: id, scale: c.newTimeScale()})
	c.log.WithField("group", id).Debug("time scale group added")
	return id
}

// AddIndicatorPanel appends an indicator panel. A zero group selects the
// default group; weight is floored at 0.5.
func (c *Chart) AddIndicatorPanel(title string, weight float64, group GroupID, parent *PanelID) (PanelID, error) {
	if group == 0 {
		group = c.groups[0].id
	}
	if _, ok := c.group(group); !ok {
		return 0, fmt.Errorf("add panel %q: %w", title, ErrUnknownGroup)
	}
	if parent != nil {
		if _, ok := c.panel(*parent); !ok {
			return 0, fmt.Errorf("add panel %q parent %d: %w", title, *parent, ErrUnknownPanel)
		}
	}

	id := c.nextPanel
	c.nextPanel++
	c.panels = append(c.panels, &panel{
		id:             id,
		group:          group,
		role:           layout.RoleIndicator,
		parent:         parent,
		title:          title,
		weight:         math.Max(weight, minIndicatorSize),
		contentVisible: true,
		left:           scale.NewPriceScaleState(),
		right:          scale.NewPriceScaleState(),
		rightVisible:   true,
	})

	c.log.WithFields(map[string]any{"panel": id, "title": title, "group": group}).Debug("indicator panel added")
	return id, nil
}

// RemovePanel drops an indicator panel and every series drawn in it
func (c *Chart) RemovePanel(id PanelID) error {
	if id == c.MainPanel() {
		return ErrMainPanel
	}
	if _, ok := c.panel(id); !ok {
		return fmt.Errorf("remove panel %d: %w", id, ErrUnknownPanel)
	}

	c.panels = lo.Reject(c.panels, func(p *panel, _ int) bool { return p.id == id })
	for _, s := range c.orderedSeries() {
		if s.panel == id {
			c.dropSeries(s.id)
		}
	}
	if c.rsi != nil && c.rsi.panel == id {
		c.rsi = nil
	}

	c.log.WithField("panel", id).Debug("panel removed")
	c.recalculateAfterDataUpdate()
	return nil
}

// TogglePanelVisibility flips whether the panel content is drawn
func (c *Chart) TogglePanelVisibility(id PanelID) error {
	p, ok := c.panel(id)
	if !ok {
		return fmt.Errorf("toggle panel %d: %w", id, ErrUnknownPanel)
	}
	p.contentVisible = !p.contentVisible
	return nil
}

// TogglePanelCollapsed flips the panel between full and toolbar height
func (c *Chart) TogglePanelCollapsed(id PanelID) error {
	p, ok := c.panel(id)
	if !ok {
		return fmt.Errorf("collapse panel %d: %w", id, ErrUnknownPanel)
	}
	p.collapsed = !p.collapsed
	return nil
}

// SetPanelAutoScale toggles tracking on both price scales of a panel
func (c *Chart) SetPanelAutoScale(id PanelID, enabled bool) error {
	p, ok := c.panel(id)
	if !ok {
		return fmt.Errorf("panel %d auto scale: %w", id, ErrUnknownPanel)
	}
	p.left.Auto = enabled
	p.right.Auto = enabled
	if p.role == layout.RoleMain {
		c.options.LeftPriceScale.AutoScale = enabled
		c.options.RightPriceScale.AutoScale = enabled
	}
	if c.rsi != nil && c.rsi.panel == id {
		c.rsi.options.AutoScale = enabled
		c.rsi.state.Auto = enabled
	}
	return nil
}

// SetPanelPriceScaleVisible shows or hides both price axes of a panel
func (c *Chart) SetPanelPriceScaleVisible(id PanelID, visible bool) error {
	p, ok := c.panel(id)
	if !ok {
		return fmt.Errorf("panel %d scale visibility: %w", id, ErrUnknownPanel)
	}
	p.leftVisible = visible
	p.rightVisible = visible
	if c.rsi != nil && c.rsi.panel == id {
		c.rsi.options.Visible = visible
	}
	return nil
}

// SetIndicatorPanelData replaces the data of the panel's line series,
// creating a right scale line series when the panel has none.
func (c *Chart) SetIndicatorPanelData(id PanelID, points []core.LinePoint) error {
	if _, ok := c.panel(id); !ok {
		return fmt.Errorf("indicator data panel %d: %w", id, ErrUnknownPanel)
	}

	line, ok := c.panelLine(id)
	if !ok {
		line = c.addSeries(KindLine, SideRight, id)
	}
	line.lines.Replace(points)
	c.recalculateAfterDataUpdate()
	return nil
}

// panelLine is the first line series drawn in a panel
func (c *Chart) panelLine(id PanelID) (*series, bool) {
	return lo.Find(c.orderedSeries(), func(s *series) bool { return s.panel == id && s.kind == KindLine })
}

// SetRSIPanel installs the oscillator panel, creating it below the main
// panel on first use.
func (c *Chart) SetRSIPanel(title string, points []core.LinePoint) {
	options := DefaultPriceScaleOptions()
	options.TicksVisible = true

	rsi := &rsiPanel{
		title:   title,
		state:   scale.NewPriceScaleState(),
		options: options,
		color:   core.RGB(126, 87, 194),
	}
	rsi.data.Replace(points)

	if c.rsi != nil {
		rsi.panel = c.rsi.panel
	} else {
		parent := c.MainPanel()
		weight := c.options.Style.RSIRatio / math.Max(1-c.options.Style.RSIRatio, core.Epsilon) * mainPanelWeight
		id, err := c.AddIndicatorPanel(rsiTitle, weight, 0, &parent)
		if err != nil {
			c.log.WithError(err).Warn("rsi panel not added")
			return
		}
		rsi.panel = id
	}
	if p, ok := c.panel(rsi.panel); ok {
		p.role = layout.RoleIndicator
		p.title = rsiTitle
	}

	c.rsi = rsi
	c.recalculateAfterDataUpdate()
}

// SetRSIPanelData replaces the oscillator values, creating the panel if needed
func (c *Chart) SetRSIPanelData(points []core.LinePoint) {
	if c.rsi == nil {
		c.SetRSIPanel(rsiTitle, points)
		return
	}
	c.rsi.data.Replace(points)
	c.recalculateAfterDataUpdate()
}

// ClearRSIPanel removes the oscillator panel
func (c *Chart) ClearRSIPanel() {
	if c.rsi == nil {
		return
	}
	id := c.rsi.panel
	c.rsi = nil
	if err := c.RemovePanel(id); err != nil {
		c.log.WithError(err).WithField("panel", id).Warn("rsi panel not removed")
	}
}

// HasRSIPanel reports whether the oscillator panel is installed
func (c *Chart) HasRSIPanel() bool {
	return c.rsi != nil
}

// RSIPanel returns the id of the oscillator panel
func (c *Chart) RSIPanel() (PanelID, bool) {
	if c.rsi == nil {
		return 0, false
	}
	return c.rsi.panel, true
}

// layoutSpecs converts the panels into layout input
func (c *Chart) layoutSpecs() []layout.PanelSpec {
	return lo.Map(c.panels, func(p *panel, _ int) layout.PanelSpec {
		return layout.PanelSpec{
			ID:             int(p.id),
			Group:          int(p.group),
			Role:           p.role,
			Weight:         p.weight,
			Collapsed:      p.collapsed,
			ContentVisible: p.contentVisible,
			LeftAxis:       c.axisVisible(p, SideLeft),
			RightAxis:      c.axisVisible(p, SideRight),
			Histogram:      p.histogram && c.hasHistogram(p.id),
		}
	})
}

// axisVisible combines the panel flag with the chart level axis option,
// which only applies to the main panel.
func (c *Chart) axisVisible(p *panel, side Side) bool {
	flag := p.rightVisible
	if side == SideLeft {
		flag = p.leftVisible
	}
	if p.role == layout.RoleMain {
		return flag && c.options.priceScale(side).Visible
	}
	if c.rsi != nil && c.rsi.panel == p.id {
		return flag && c.rsi.options.Visible
	}
	return flag
}

func (c *Chart) hasHistogram(id PanelID) bool {
	return lo.SomeBy(c.orderedSeries(), func(s *series) bool { return s.panel == id && s.kind == KindHistogram })
}
