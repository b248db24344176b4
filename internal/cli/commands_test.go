package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/models"
)

func newTestApp() (*App, *Store, *bytes.Buffer) {
	store := NewStore()
	out := &bytes.Buffer{}
	return NewApp(store, out), store, out
}

func runLine(t *testing.T, app *App, line string) bool {
	t.Helper()
	cmd := ParseCommand(line)
	require.NotNil(t, cmd)
	return app.Run(cmd)
}

func TestAppAdd(t *testing.T) {
	app, store, out := newTestApp()

	runLine(t, app, "/add Buy milk tomorrow urgent #shopping")

	tasks := store.List()
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, models.CategoryShopping, task.Category)
	require.NotNil(t, task.DueDate)
	assert.Contains(t, out.String(), "Added task "+task.ID)
}

func TestAppAddDefaults(t *testing.T) {
	app, store, _ := newTestApp()

	runLine(t, app, "/add Water the plants")

	tasks := store.List()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, models.CategoryOther, tasks[0].Category)
}

func TestAppAddUsage(t *testing.T) {
	app, store, out := newTestApp()

	runLine(t, app, "/add")

	assert.Equal(t, 0, store.Count())
	assert.Contains(t, out.String(), "Usage: /add")
}

func TestAppList(t *testing.T) {
	app, store, out := newTestApp()

	runLine(t, app, "/list")
	assert.Contains(t, out.String(), "No tasks yet")

	store.Create(&models.Task{Title: "Buy milk", Priority: models.PriorityLow, Category: models.CategoryShopping})
	out.Reset()
	runLine(t, app, "/list")
	assert.Contains(t, out.String(), "Buy milk")
}

func TestAppShow(t *testing.T) {
	app, store, out := newTestApp()
	task := store.Create(&models.Task{Title: "Buy milk", Priority: models.PriorityLow, Category: models.CategoryShopping})

	runLine(t, app, "/show "+task.ID)
	assert.Contains(t, out.String(), "Buy milk")

	out.Reset()
	runLine(t, app, "/show nosuch")
	assert.Contains(t, out.String(), "not found")
}

func TestAppUpdate(t *testing.T) {
	app, store, out := newTestApp()
	task := store.Create(&models.Task{Title: "Buy milk", Priority: models.PriorityLow, Category: models.CategoryShopping})

	runLine(t, app, "/update "+task.ID+` title="Buy oat milk" priority=high`)
	assert.Contains(t, out.String(), "Updated task "+task.ID)

	got, ok := store.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)
}

func TestAppUpdateInvalidField(t *testing.T) {
	app, store, out := newTestApp()
	task := store.Create(&models.Task{Title: "Buy milk"})

	runLine(t, app, "/update "+task.ID+" priority=wat")
	assert.Contains(t, out.String(), "priority must be one of")

	out.Reset()
	runLine(t, app, "/update "+task.ID+" color=red")
	assert.Contains(t, out.String(), `unknown field "color"`)
}

func TestAppCompleteToggles(t *testing.T) {
	app, store, out := newTestApp()
	task := store.Create(&models.Task{Title: "Buy milk"})

	runLine(t, app, "/complete "+task.ID)
	assert.Contains(t, out.String(), "Completed task "+task.ID)
	got, _ := store.Get(task.ID)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)

	out.Reset()
	runLine(t, app, "/complete "+task.ID)
	assert.Contains(t, out.String(), "Reopened task "+task.ID)
	got, _ = store.Get(task.ID)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestAppDelete(t *testing.T) {
	app, store, out := newTestApp()
	task := store.Create(&models.Task{Title: "Buy milk"})

	runLine(t, app, "/delete "+task.ID)
	assert.Contains(t, out.String(), "Deleted task "+task.ID)
	assert.Equal(t, 0, store.Count())

	out.Reset()
	runLine(t, app, "/delete "+task.ID)
	assert.Contains(t, out.String(), "not found")
}

func TestAppSearch(t *testing.T) {
	app, store, out := newTestApp()
	store.Create(&models.Task{Title: "Buy milk", Priority: models.PriorityLow, Category: models.CategoryShopping})
	store.Create(&models.Task{Title: "Standup", Priority: models.PriorityLow, Category: models.CategoryWork})

	runLine(t, app, "/search milk")
	assert.Contains(t, out.String(), "Buy milk")
	assert.NotContains(t, out.String(), "Standup")

	out.Reset()
	runLine(t, app, "/search xyzzy")
	assert.Contains(t, out.String(), "No tasks match")
}

func TestAppStats(t *testing.T) {
	app, store, out := newTestApp()

	runLine(t, app, "/stats")
	assert.Contains(t, out.String(), "nothing to report")

	task := store.Create(&models.Task{Title: "Buy milk", Priority: models.PriorityHigh, Category: models.CategoryShopping})
	store.Update(task.ID, func(task *models.Task) { task.Completed = true })
	store.Create(&models.Task{Title: "Standup", Priority: models.PriorityLow, Category: models.CategoryWork})

	out.Reset()
	runLine(t, app, "/stats")
	stats := out.String()
	assert.Contains(t, stats, "2")
	assert.Contains(t, strings.ToLower(stats), "high")
	assert.Contains(t, strings.ToLower(stats), "shopping")
}

func TestAppUnknownCommand(t *testing.T) {
	app, _, out := newTestApp()

	assert.True(t, runLine(t, app, "/frobnicate"))
	assert.Contains(t, out.String(), "Unknown command /frobnicate")
}

func TestAppExit(t *testing.T) {
	app, _, out := newTestApp()

	assert.False(t, runLine(t, app, "/exit"))
	assert.Contains(t, out.String(), "Bye!")

	assert.False(t, runLine(t, app, "/quit"))
}

func TestAppHelp(t *testing.T) {
	app, _, out := newTestApp()

	runLine(t, app, "/help")
	assert.Contains(t, out.String(), "/add")
	assert.Contains(t, out.String(), "/stats")
}
