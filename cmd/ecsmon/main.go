// Command ecsmon is a terminal inspector for a running World: it polls
// Stats() once per refresh interval from outside the simulation's own tick
// goroutine and renders a per-column table (size, capacity, load factor)
// under a one-line summary of entity counts, scheduler accumulator, query
// cache hits/misses and live-entity snapshot size. Per-system timings and
// event-bus queues are not shown.
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
	"muscle-dreamer/internal/core/systems"
)

const refreshInterval = 200 * time.Millisecond

func main() {
	world := ecs.NewWorld(ecs.DefaultWorldConfig(), zerolog.Nop())
	seedDemoWorld(world)

	// liveEntities is refreshed by the simulation goroutine every tick and
	// read by the TUI's own poll loop below — the cross-goroutine
	// live-entity-set handoff SPEC_FULL.md §5 describes, using
	// ecs.SafeEntitySet rather than calling back into World from the render
	// side for this one piece of state.
	liveEntities := ecs.NewSafeEntitySet()

	stop := make(chan struct{})
	go runSimulation(world, liveEntities, stop)
	defer close(stop)

	program := tea.NewProgram(newModel(world, liveEntities))
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ecsmon:", err)
		os.Exit(1)
	}
}

// seedDemoWorld registers the built-in components and systems and spawns a
// handful of entities so the inspector has something to show immediately.
func seedDemoWorld(world *ecs.World) {
	ids, err := components.RegisterAll(world)
	if err != nil {
		panic(err)
	}

	physics := systems.NewPhysicsSystem()
	movement := systems.NewMovementSystem()
	rendering := systems.NewRenderingSystem()
	_ = world.RegisterSystem(physics)
	_ = world.RegisterSystem(movement, physics.Name())
	_ = world.RegisterSystem(rendering)

	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]
	for i := 0; i < 8; i++ {
		e, err := world.CreateEntity()
		if err != nil {
			continue
		}
		_ = world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(i * 10), components.FieldY: float32(0)})
		_ = world.AddComponent(e, physicsID, map[string]any{
			components.FieldVelocityX: float32(1 + i),
			components.FieldMass:      float32(1),
			components.FieldGravity:   true,
		})
	}
}

// runSimulation drives the world's fixed timestep until stop is closed. It
// is the "tick goroutine" the TUI's own poll loop stays outside of. After
// each tick it republishes the live entity set into liveEntities so the TUI
// goroutine can read it without touching World directly.
func runSimulation(world *ecs.World, liveEntities *ecs.SafeEntitySet, stop <-chan struct{}) {
	ticker := time.NewTicker(world.Config().FixedDT)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = world.Update(world.Config().FixedDT)
			liveEntities.Clear()
			for _, e := range world.ActiveEntities() {
				liveEntities.Add(e)
			}
		}
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	world        *ecs.World
	liveEntities *ecs.SafeEntitySet
	tbl          table.Model
}

func newModel(world *ecs.World, liveEntities *ecs.SafeEntitySet) model {
	columns := []table.Column{
		{Title: "Component", Width: 16},
		{Title: "Size", Width: 8},
		{Title: "Capacity", Width: 10},
		{Title: "Load Factor", Width: 12},
	}
	tbl := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(10))
	style := table.DefaultStyles()
	style.Header = style.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Bold(true)
	tbl.SetStyles(style)
	return model{world: world, liveEntities: liveEntities, tbl: tbl}
}

func (m model) Init() tea.Cmd { return tickCmd() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.tbl.SetRows(rowsFromStats(m.world.Stats()))
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("ecsmon — live World inspector (q to quit)")
	stats := m.world.Stats()
	summary := fmt.Sprintf(
		"entities alive=%d created=%d destroyed=%d  |  accumulator=%.4fs  |  query hits=%d misses=%d  |  live snapshot=%d",
		stats.Entities.Alive, stats.Entities.Created, stats.Entities.Destroyed,
		stats.Scheduler.AccumulatorSeconds, stats.Queries.Hits, stats.Queries.Misses,
		m.liveEntities.Len(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, summary, "", m.tbl.View())
}

func rowsFromStats(stats ecs.WorldStats) []table.Row {
	cols := append([]ecs.ColumnStats(nil), stats.Columns...)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Type < cols[j].Type })

	rows := make([]table.Row, 0, len(cols))
	for _, col := range cols {
		rows = append(rows, table.Row{
			string(col.Type),
			fmt.Sprintf("%d", col.Size),
			fmt.Sprintf("%d", col.Capacity),
			fmt.Sprintf("%.2f", col.LoadFactor),
		})
	}
	return rows
}
