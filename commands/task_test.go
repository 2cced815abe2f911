package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"taskboard/llm"
	"taskboard/storage"
	"taskboard/task"
	"taskboard/taskstore"
)

// testNow is the fixed clock reading used by command tests
var testNow = time.Date(2025, 6, 4, 12, 0, 0, 0, time.Local)

// setupTestStore creates a store over an in-memory slot for testing.
// Task ids are 00000001-test, 00000002-test, ... so their short form is
// predictable.
func setupTestStore(t *testing.T) (*storage.MemorySlot, func()) {
	t.Helper()

	slot := storage.NewMemorySlot()
	adapter := storage.NewAdapter(slot)

	var n int
	store := taskstore.Open(context.Background(), adapter,
		taskstore.WithClock(func() time.Time { return testNow }),
		taskstore.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("%08d-test", n)
		}),
	)

	SetStore(store, adapter)
	resetChat()

	return slot, func() {
		SetStore(nil, nil)
		SetLLMClient(nil)
		SetConfirmFunc(nil)
		adapter.Close()
	}
}

func resetChat() {
	chat.mu.Lock()
	defer chat.mu.Unlock()
	chat.history = nil
	chat.inputTokens, chat.outputTokens, chat.prompts = 0, 0, 0
}

// captureCommandOutput runs a command and captures its output
func captureCommandOutput(t *testing.T, input string) string {
	t.Helper()

	_, output, err := ExecuteWithOutput(input)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", input, err)
	}
	return output
}

func TestTaskCommands(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	// Create a task
	output := captureCommandOutput(t, "/add Buy groceries")
	if !strings.Contains(output, "Created task: Buy groceries") {
		t.Errorf("Expected task creation message, got: %s", output)
	}
	if !strings.Contains(output, "00000001") {
		t.Errorf("Expected short ID 00000001, got: %s", output)
	}

	// List tasks
	output = captureCommandOutput(t, "/list")
	if !strings.Contains(output, "Buy groceries") {
		t.Errorf("Expected task in list, got: %s", output)
	}
	if !strings.Contains(output, "[ ]") {
		t.Errorf("Expected unchecked status, got: %s", output)
	}
	if !strings.Contains(output, "medium") {
		t.Errorf("Expected default priority medium, got: %s", output)
	}

	// Mark as done
	output = captureCommandOutput(t, "/done 00000001")
	if !strings.Contains(output, "Marked task 00000001 as completed") {
		t.Errorf("Expected done message, got: %s", output)
	}

	// Verify done status in list
	output = captureCommandOutput(t, "/list")
	if !strings.Contains(output, "[✓]") {
		t.Errorf("Expected checked status, got: %s", output)
	}

	// Back to todo
	output = captureCommandOutput(t, "/status 00000001 todo")
	if !strings.Contains(output, "Marked task 00000001 as todo") {
		t.Errorf("Expected status message, got: %s", output)
	}

	// Delete task
	output = captureCommandOutput(t, "/delete 00000001")
	if !strings.Contains(output, "Deleted task: 00000001") {
		t.Errorf("Expected deletion message, got: %s", output)
	}

	// Verify task is gone
	output = captureCommandOutput(t, "/list")
	if strings.Contains(output, "Buy groceries") {
		t.Errorf("Deleted task should not appear in list, got: %s", output)
	}
	if !strings.Contains(output, "No tasks yet") {
		t.Errorf("Expected empty state hint, got: %s", output)
	}
}

func TestNewestTaskListedFirst(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add First")
	captureCommandOutput(t, "/add Second")

	output := captureCommandOutput(t, "/list")
	if strings.Index(output, "Second") > strings.Index(output, "First") {
		t.Errorf("Expected newest task first, got: %s", output)
	}
}

func TestAddWithFlags(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	output := captureCommandOutput(t, `/add "Write report" --desc "Q2 numbers" --priority high --due 2025-06-10`)
	if !strings.Contains(output, "Created task: Write report") {
		t.Fatalf("Expected task creation message, got: %s", output)
	}

	output = captureCommandOutput(t, "/show 00000001")
	for _, want := range []string{"Write report", "Q2 numbers", "Priority:    high", "Due:         2025-06-10", "Status:      todo"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in show output, got: %s", want, output)
		}
	}

	// Unquoted multi-word titles work too
	output = captureCommandOutput(t, "/add Call the bank -p low")
	if !strings.Contains(output, "Created task: Call the bank") {
		t.Errorf("Expected multi-word title, got: %s", output)
	}
	tasks := GetStore().All()
	if tasks[0].Priority != task.PriorityLow {
		t.Errorf("Expected low priority, got %s", tasks[0].Priority)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	tests := []struct {
		input string
		want  string
	}{
		{`/add "   "`, "Error creating task"},
		{"/add Task --priority urgent", "Error:"},
		{"/add Task --status blocked", "Error:"},
		{"/add Task --due someday", "Error:"},
		{"/add Task --bogus x", "Error:"},
	}

	for _, tt := range tests {
		output := captureCommandOutput(t, tt.input)
		if !strings.Contains(output, tt.want) {
			t.Errorf("%s: expected %q, got: %s", tt.input, tt.want, output)
		}
	}

	if n := GetStore().Len(); n != 0 {
		t.Errorf("Expected no tasks after rejected input, got %d", n)
	}
}

func TestEditCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, `/add Draft --desc "old notes"`)

	output := captureCommandOutput(t, `/edit 00000001 --title "Final draft"`)
	if !strings.Contains(output, "Updated task 00000001") {
		t.Errorf("Expected update message, got: %s", output)
	}

	got, err := GetStore().Get("00000001-test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Final draft" {
		t.Errorf("Expected title 'Final draft', got %q", got.Title)
	}
	if got.Description != "old notes" {
		t.Errorf("Description should be untouched, got %q", got.Description)
	}

	// Clearing the description
	captureCommandOutput(t, `/edit 00000001 --desc ""`)
	got, _ = GetStore().Get("00000001-test")
	if got.Description != "" {
		t.Errorf("Expected empty description, got %q", got.Description)
	}

	// Empty title is rejected
	output = captureCommandOutput(t, `/edit 00000001 --title " "`)
	if !strings.Contains(output, "Error:") {
		t.Errorf("Expected validation error, got: %s", output)
	}
	got, _ = GetStore().Get("00000001-test")
	if got.Title != "Final draft" {
		t.Errorf("Title should be unchanged after rejected edit, got %q", got.Title)
	}
}

func TestCycleCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Cycle me")

	want := []string{"in progress", "completed", "todo"}
	for _, w := range want {
		output := captureCommandOutput(t, "/cycle 00000001")
		if !strings.Contains(output, "is now "+w) {
			t.Errorf("Expected status %q, got: %s", w, output)
		}
	}
}

func TestPriorityCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Something")

	output := captureCommandOutput(t, "/priority 00000001 high")
	if !strings.Contains(output, "Set priority for task 00000001 to high") {
		t.Errorf("Expected priority message, got: %s", output)
	}

	output = captureCommandOutput(t, "/priority 00000001 urgent")
	if !strings.Contains(output, "Error:") {
		t.Errorf("Expected error for bad priority, got: %s", output)
	}
}

func TestDueDateCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Important task")

	// Set due date
	output := captureCommandOutput(t, "/due 00000001 2025-12-31")
	if !strings.Contains(output, "Set due date for task 00000001 to 2025-12-31") {
		t.Errorf("Expected due date set message, got: %s", output)
	}

	// Verify due date in task list
	output = captureCommandOutput(t, "/list")
	if !strings.Contains(output, "due 2025-12-31") {
		t.Errorf("Expected due date in task list, got: %s", output)
	}

	// Clear due date
	output = captureCommandOutput(t, "/due 00000001 none")
	if !strings.Contains(output, "Cleared due date for task 00000001") {
		t.Errorf("Expected due date cleared message, got: %s", output)
	}

	output = captureCommandOutput(t, "/list")
	if strings.Contains(output, "due 2025-12-31") {
		t.Errorf("Due date should be cleared, got: %s", output)
	}
}

func TestDueDateInvalidFormat(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Test task")

	output := captureCommandOutput(t, "/due 00000001 12-31-2025")
	if !strings.Contains(output, "Invalid date format") {
		t.Errorf("Expected invalid date format error, got: %s", output)
	}

	output = captureCommandOutput(t, "/due 00000001 tomorrow")
	if !strings.Contains(output, "Invalid date format") {
		t.Errorf("Expected invalid date format error, got: %s", output)
	}
}

// listedIDs maps each title in /list output to the id printed beside it
func listedIDs(t *testing.T) map[string]string {
	t.Helper()

	re := regexp.MustCompile(`\[([^\]]+)\] (.+?) \(`)
	ids := make(map[string]string)
	for _, m := range re.FindAllStringSubmatch(captureCommandOutput(t, "/list"), -1) {
		ids[m[2]] = m[1]
	}
	return ids
}

func TestListedIDsWorkWithDefaultIDs(t *testing.T) {
	slot := storage.NewMemorySlot()
	adapter := storage.NewAdapter(slot)
	SetStore(taskstore.Open(context.Background(), adapter), adapter)
	defer func() {
		SetStore(nil, nil)
		adapter.Close()
	}()

	captureCommandOutput(t, "/add First")
	captureCommandOutput(t, "/add Second")

	ids := listedIDs(t)
	if len(ids) != 2 {
		t.Fatalf("Expected 2 listed tasks, got %v", ids)
	}
	if ids["First"] == ids["Second"] {
		t.Fatalf("Expected distinct ids in /list, got %v", ids)
	}

	for _, title := range []string{"First", "Second"} {
		output := captureCommandOutput(t, "/done "+ids[title])
		if !strings.Contains(output, "Marked task") {
			t.Errorf("/done %s (%s): got %s", ids[title], title, output)
		}
	}
	for _, title := range []string{"First", "Second"} {
		output := captureCommandOutput(t, "/delete "+ids[title])
		if !strings.Contains(output, "Deleted task") {
			t.Errorf("/delete %s (%s): got %s", ids[title], title, output)
		}
	}

	if n := GetStore().Len(); n != 0 {
		t.Errorf("Expected empty collection, got %d tasks", n)
	}
}

func TestListedIDsUniqueWithSharedPrefixes(t *testing.T) {
	slot := storage.NewMemorySlot()
	adapter := storage.NewAdapter(slot)
	// Browser-era ids were millisecond timestamps
	ids := []string{"1717500000001", "1717500000002"}
	var n int
	SetStore(taskstore.Open(context.Background(), adapter,
		taskstore.WithIDGenerator(func() string {
			n++
			return ids[n-1]
		}),
	), adapter)
	defer func() {
		SetStore(nil, nil)
		adapter.Close()
	}()

	captureCommandOutput(t, "/add First")
	captureCommandOutput(t, "/add Second")

	listed := listedIDs(t)
	if listed["First"] != "1717500000001" || listed["Second"] != "1717500000002" {
		t.Fatalf("Expected full ids where prefixes collide, got %v", listed)
	}

	output := captureCommandOutput(t, "/done "+listed["Second"])
	if !strings.Contains(output, "Marked task 1717500000002") {
		t.Errorf("Expected second task marked, got: %s", output)
	}
}

func TestAddTitleStartingWithDash(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	line, err := BuildCommandLine("add", map[string]any{"title": "-5 pushups", "priority": "low"})
	if err != nil {
		t.Fatal(err)
	}
	output := captureCommandOutput(t, line)
	if !strings.Contains(output, "Created task: -5 pushups") {
		t.Fatalf("Expected task created, got: %s", output)
	}

	line, err = BuildCommandLine("edit", map[string]any{"task_id": "00000001", "title": "-10 pushups"})
	if err != nil {
		t.Fatal(err)
	}
	output = captureCommandOutput(t, line)
	if !strings.Contains(output, "Updated task 00000001") {
		t.Fatalf("Expected task updated, got: %s", output)
	}

	got, err := GetStore().Get("00000001-test")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "-10 pushups" || got.Priority != task.PriorityLow {
		t.Errorf("Expected -10 pushups at low priority, got %q at %s", got.Title, got.Priority)
	}
}

func TestMissingTask(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Only task")

	for _, input := range []string{
		"/done 99999999",
		"/show 99999999",
		"/cycle 99999999",
		"/delete 99999999",
		"/due 99999999 2025-01-01",
	} {
		output := captureCommandOutput(t, input)
		if !strings.Contains(output, "task not found") {
			t.Errorf("%s: expected not found error, got: %s", input, output)
		}
	}

	if n := GetStore().Len(); n != 1 {
		t.Errorf("Expected collection unchanged, got %d tasks", n)
	}
}

func TestFilterAndSearch(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, `/add "Write tests" --desc "for the store"`)
	captureCommandOutput(t, "/add Review PR")
	captureCommandOutput(t, "/add Deploy --status in-progress")

	output := captureCommandOutput(t, "/filter in-progress")
	if !strings.Contains(output, "1 of 3") || !strings.Contains(output, "Deploy") {
		t.Errorf("Expected only the in-progress task, got: %s", output)
	}

	// The filter sticks for /list
	output = captureCommandOutput(t, "/list")
	if strings.Contains(output, "Review PR") {
		t.Errorf("Filter should still apply, got: %s", output)
	}

	captureCommandOutput(t, "/filter all")
	output = captureCommandOutput(t, "/search STORE")
	if !strings.Contains(output, "1 of 3") || !strings.Contains(output, "Write tests") {
		t.Errorf("Expected search to match description case-insensitively, got: %s", output)
	}

	// Filter and search combine
	output = captureCommandOutput(t, "/filter completed")
	if !strings.Contains(output, "0 of 3") || !strings.Contains(output, "No tasks match") {
		t.Errorf("Expected no matches, got: %s", output)
	}

	output = captureCommandOutput(t, "/filter bogus")
	if !strings.Contains(output, "Error:") {
		t.Errorf("Expected error for unknown filter, got: %s", output)
	}

	output = captureCommandOutput(t, "/clear")
	if !strings.Contains(output, "3 of 3") {
		t.Errorf("Expected all tasks after clear, got: %s", output)
	}
	filter, search := CurrentView()
	if filter != task.FilterAll || search != "" {
		t.Errorf("Expected view reset, got %q %q", filter, search)
	}
}

func TestStatsCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add One --status completed")
	captureCommandOutput(t, "/add Two --status in-progress")
	captureCommandOutput(t, "/add Three --due 2025-06-01")

	output := captureCommandOutput(t, "/stats")
	for _, want := range []string{"Total:       3", "To do:       1", "In progress: 1", "Completed:   1", "Overdue:     1", "Completion:  33%"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in stats, got: %s", want, output)
		}
	}
}

func TestScheduleCommands(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	// testNow is Wednesday 2025-06-04
	captureCommandOutput(t, "/add Today task --due 2025-06-04")
	captureCommandOutput(t, "/add Tomorrow task --due 2025-06-05")
	captureCommandOutput(t, "/add Sunday task --due 2025-06-08")
	captureCommandOutput(t, "/add Next week task --due 2025-06-09")
	captureCommandOutput(t, "/add Late task --due 2025-06-01")
	captureCommandOutput(t, "/add Done today --due 2025-06-04 --status completed")

	output := captureCommandOutput(t, "/today")
	if !strings.Contains(output, "Today task") || strings.Contains(output, "Tomorrow task") {
		t.Errorf("Unexpected /today output: %s", output)
	}
	if strings.Contains(output, "Done today") {
		t.Errorf("Completed tasks should not be listed: %s", output)
	}

	output = captureCommandOutput(t, "/tomorrow")
	if !strings.Contains(output, "Tomorrow task") || strings.Contains(output, "Today task") {
		t.Errorf("Unexpected /tomorrow output: %s", output)
	}

	output = captureCommandOutput(t, "/week")
	for _, want := range []string{"Today task", "Tomorrow task", "Sunday task"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in /week, got: %s", want, output)
		}
	}
	if strings.Contains(output, "Next week task") {
		t.Errorf("Next week's task should not be in /week: %s", output)
	}

	output = captureCommandOutput(t, "/overdue")
	if !strings.Contains(output, "Late task") || !strings.Contains(output, "OVERDUE") {
		t.Errorf("Expected overdue task, got: %s", output)
	}
	if strings.Contains(output, "Tomorrow task") {
		t.Errorf("Only overdue tasks expected, got: %s", output)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{2, 2}, // Monday
		{4, 2}, // Wednesday
		{8, 2}, // Sunday
		{9, 9}, // next Monday
	}

	for _, tt := range tests {
		day := time.Date(2025, 6, tt.day, 0, 0, 0, 0, time.Local)
		got := startOfWeek(day)
		if got.Day() != tt.want {
			t.Errorf("startOfWeek(June %d) = June %d, want June %d", tt.day, got.Day(), tt.want)
		}
	}
}

func TestCommandsPersist(t *testing.T) {
	slot, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Persist me --priority high")

	data, err := slot.Get(context.Background(), storage.DefaultKey)
	if err != nil {
		t.Fatalf("Expected saved blob, got error: %v", err)
	}
	if !strings.Contains(string(data), `"title": "Persist me"`) {
		t.Errorf("Expected task in saved blob, got: %s", data)
	}

	// A fresh store over the same slot sees the task
	reopened := taskstore.Open(context.Background(), storage.NewAdapter(slot))
	tasks := reopened.All()
	if len(tasks) != 1 || tasks[0].Title != "Persist me" || tasks[0].Priority != task.PriorityHigh {
		t.Errorf("Unexpected reloaded tasks: %+v", tasks)
	}
}

func TestSaveCommand(t *testing.T) {
	slot, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Saved")

	// Wipe the slot so only /save can restore it
	if err := slot.Set(context.Background(), storage.DefaultKey, []byte("[]")); err != nil {
		t.Fatal(err)
	}

	output := captureCommandOutput(t, "/save")
	if !strings.Contains(output, "Saved 1 tasks") {
		t.Errorf("Expected save message, got: %s", output)
	}

	data, _ := slot.Get(context.Background(), storage.DefaultKey)
	if !strings.Contains(string(data), "Saved") {
		t.Errorf("Expected task in blob after /save, got: %s", data)
	}

	output = captureCommandOutput(t, "/storage")
	if !strings.Contains(output, "Last save: ok") {
		t.Errorf("Expected storage status, got: %s", output)
	}
}

func TestCommandUsageMessages(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	tests := []struct {
		input string
		usage string
	}{
		{"/add", "Usage: /add"},
		{"/show", "Usage: /show"},
		{"/edit", "Usage: /edit"},
		{"/edit 00000001", "Usage: /edit"},
		{"/status 00000001", "Usage: /status"},
		{"/done", "Usage: /done"},
		{"/cycle", "Usage: /cycle"},
		{"/priority", "Usage: /priority"},
		{"/due", "Usage: /due"},
		{"/delete", "Usage: /delete"},
		{"/filter", "Usage: /filter"},
		{"/chat", "Usage: /chat"},
	}

	for _, tt := range tests {
		output := captureCommandOutput(t, tt.input)
		if !strings.Contains(output, tt.usage) {
			t.Errorf("%s: expected usage message containing %q, got: %s", tt.input, tt.usage, output)
		}
	}
}

func TestHelpCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	output := captureCommandOutput(t, "/help")
	if !strings.Contains(output, "/add") || !strings.Contains(output, "/stats") {
		t.Errorf("Expected command list, got: %s", output)
	}

	output = captureCommandOutput(t, "/help due")
	if !strings.Contains(output, "Usage: /due <task-id> <YYYY-MM-DD|none>") {
		t.Errorf("Expected usage for /due, got: %s", output)
	}
}

func TestQuitCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	quit, output, err := ExecuteWithOutput("/quit")
	if err != nil {
		t.Fatal(err)
	}
	if !quit {
		t.Error("Expected /quit to signal quit")
	}
	if !strings.Contains(output, "Goodbye!") {
		t.Errorf("Expected goodbye, got: %s", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := Execute("/nope")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Expected unknown command error, got %v", err)
	}
}

// fakeClient is an llm.Client that replays a fixed list of tool calls
type fakeClient struct {
	calls   []llm.ToolCall
	results []string
}

func (f *fakeClient) Chat(ctx context.Context, prompt string) (*llm.Response, error) {
	return &llm.Response{Text: prompt}, nil
}

func (f *fakeClient) ChatWithConfig(ctx context.Context, prompt string, config *llm.Config) (*llm.Response, error) {
	return f.Chat(ctx, prompt)
}

func (f *fakeClient) ChatWithTools(ctx context.Context, message string, history []*llm.Message, tools []*llm.Tool, executor llm.ToolExecutor) (*llm.Response, []*llm.Message, error) {
	for _, c := range f.calls {
		f.results = append(f.results, executor(c.Name, c.Arguments))
	}
	history = append(history, &llm.Message{Role: llm.RoleUser, Content: message}, &llm.Message{Role: llm.RoleAssistant, Content: "All set."})
	return &llm.Response{Text: "All set.", InputTokens: 10, OutputTokens: 5, TokensUsed: 15}, history, nil
}

func (f *fakeClient) Close() error { return nil }

func TestChatWithoutClient(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	output := captureCommandOutput(t, "/chat hello")
	if !strings.Contains(output, "GEMINI_API_KEY") {
		t.Errorf("Expected missing client message, got: %s", output)
	}
}

func TestChatRunsToolCalls(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	client := &fakeClient{calls: []llm.ToolCall{
		{Name: "add", Arguments: map[string]any{"title": "Call mom", "priority": "high", "due": "2025-06-05"}},
		{Name: "list"},
	}}
	SetLLMClient(client)

	output := captureCommandOutput(t, "/chat add a task to call mom tomorrow")
	if !strings.Contains(output, "All set.") {
		t.Errorf("Expected assistant reply, got: %s", output)
	}
	if !strings.Contains(output, "[Tokens: 10 in / 5 out]") {
		t.Errorf("Expected token usage, got: %s", output)
	}

	if len(client.results) != 2 {
		t.Fatalf("Expected 2 tool results, got %d", len(client.results))
	}
	if !strings.Contains(client.results[0], "Created task: Call mom") {
		t.Errorf("Expected creation in tool result, got: %s", client.results[0])
	}
	if !strings.Contains(client.results[1], "Call mom") {
		t.Errorf("Expected list in tool result, got: %s", client.results[1])
	}

	tasks := GetStore().All()
	if len(tasks) != 1 || tasks[0].Priority != task.PriorityHigh || tasks[0].DueDate == nil {
		t.Errorf("Unexpected tasks after chat: %+v", tasks)
	}

	output = captureCommandOutput(t, "/usage")
	if !strings.Contains(output, "Prompts:       1") {
		t.Errorf("Expected usage totals, got: %s", output)
	}
}

func TestChatDestructiveNeedsConfirmation(t *testing.T) {
	_, cleanup := setupTestStore(t)
	defer cleanup()

	captureCommandOutput(t, "/add Keep me")

	client := &fakeClient{calls: []llm.ToolCall{
		{Name: "delete", Arguments: map[string]any{"task_id": "00000001"}},
	}}
	SetLLMClient(client)

	// No confirm function: refused
	captureCommandOutput(t, "/chat delete it")
	if !strings.Contains(client.results[0], "Cancelled") {
		t.Errorf("Expected refusal, got: %s", client.results[0])
	}
	if GetStore().Len() != 1 {
		t.Error("Task should not be deleted without confirmation")
	}

	// Confirmed
	var asked string
	SetConfirmFunc(func(prompt string) bool {
		asked = prompt
		return true
	})
	client.results = nil
	captureCommandOutput(t, "/chat delete it")
	if !strings.Contains(asked, "/delete 00000001") {
		t.Errorf("Expected confirmation prompt naming the command, got: %q", asked)
	}
	if GetStore().Len() != 0 {
		t.Error("Task should be deleted after confirmation")
	}
}

func TestAddCommandContextTrims(t *testing.T) {
	resetChat()
	defer resetChat()

	for i := 0; i < maxCommandContextEntries+5; i++ {
		AddCommandContext(fmt.Sprintf("/list %d", i), "ok")
	}

	chat.mu.Lock()
	defer chat.mu.Unlock()
	if len(chat.history) != maxCommandContextEntries {
		t.Fatalf("Expected %d entries, got %d", maxCommandContextEntries, len(chat.history))
	}
	if !strings.Contains(chat.history[0].Content, "/list 5") {
		t.Errorf("Expected oldest entries dropped, first is: %s", chat.history[0].Content)
	}
}
