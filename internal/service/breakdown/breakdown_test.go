package breakdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
	"shopfloor/internal/storage/memory"
)

var (
	scope    = service.Scope{TenantID: 1, UserID: 7}
	reported = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
)

// flakyStore роняет отметку на задаче, пока fail = true, и умеет вклиниться
// между чтением и записью, как параллельный запрос.
type flakyStore struct {
	*memory.Storage
	fail bool

	afterGetMachine func()
	afterResolve    func()
	taskReads       int
}

func (f *flakyStore) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	m, err := f.Storage.GetMachine(ctx, id)
	if f.afterGetMachine != nil {
		f.afterGetMachine()
		f.afterGetMachine = nil
	}
	return m, err
}

func (f *flakyStore) GetTask(ctx context.Context, id int64) (*storage.Task, error) {
	f.taskReads++
	return f.Storage.GetTask(ctx, id)
}

func (f *flakyStore) ResolveBreakdown(ctx context.Context, id int64, resolvedBy int64, resolvedAt time.Time, resolution string) (bool, error) {
	ok, err := f.Storage.ResolveBreakdown(ctx, id, resolvedBy, resolvedAt, resolution)
	if f.afterResolve != nil {
		f.afterResolve()
		f.afterResolve = nil
	}
	return ok, err
}

func (f *flakyStore) UpdateTaskBreakdown(ctx context.Context, id int64, breakdownAt *time.Time, note *string, resolvedAt *time.Time) error {
	if f.fail {
		return errors.New("lock wait timeout exceeded")
	}
	return f.Storage.UpdateTaskBreakdown(ctx, id, breakdownAt, note, resolvedAt)
}

type fixture struct {
	store     *flakyStore
	svc       *Service
	machineID int64
	taskID    int64
}

func newFixture(t *testing.T, status storage.MachineStatus) *fixture {
	t.Helper()

	st := memory.New()
	f := &fixture{store: &flakyStore{Storage: st}}

	f.machineID = st.AddMachine(storage.Machine{TenantID: 1, Name: "Пресс-2", Status: status, IsActive: true})
	f.taskID = st.AddTask(storage.Task{TenantID: 1, JobsheetID: 1, Status: storage.TaskRunning, MachineID: &f.machineID})

	f.svc = NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), f.store)
	f.svc.SetClock(func() time.Time { return reported })

	return f
}

func (f *fixture) input(withTask bool) ReportInput {
	in := ReportInput{MachineID: f.machineID, Type: "MECHANICAL", Description: "spindle jam"}
	if withTask {
		id := f.taskID
		in.AffectedTaskID = &id
	}
	return in
}

func (f *fixture) machineStatus(t *testing.T) storage.MachineStatus {
	t.Helper()
	m, err := f.store.GetMachine(context.Background(), f.machineID)
	require.NoError(t, err)
	return m.Status
}

func TestReport_MarksMachineDown(t *testing.T) {
	for _, status := range []storage.MachineStatus{storage.MachineIdle, storage.MachineBusy, storage.MachineDown} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, status)

			b, err := f.svc.Report(context.Background(), scope, f.input(false))
			require.NoError(t, err)

			assert.NotZero(t, b.ID)
			assert.False(t, b.Resolved)
			assert.Equal(t, int64(7), b.ReportedBy)
			assert.True(t, reported.Equal(b.ReportedAt))
			assert.Equal(t, storage.MachineDown, f.machineStatus(t))
		})
	}
}

func TestReport_StampsAffectedTask(t *testing.T) {
	f := newFixture(t, storage.MachineBusy)
	ctx := context.Background()

	_, err := f.svc.Report(ctx, scope, f.input(true))
	require.NoError(t, err)

	task, err := f.store.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	require.NotNil(t, task.BreakdownAt)
	assert.True(t, reported.Equal(*task.BreakdownAt))
	require.NotNil(t, task.BreakdownNote)
	assert.Equal(t, "spindle jam", *task.BreakdownNote)
	assert.Equal(t, storage.TaskRunning, task.Status, "status is not changed by a breakdown")
}

func TestReport_Validation(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)

	tests := []struct {
		name string
		in   ReportInput
	}{
		{"без станка", ReportInput{Type: "MECHANICAL", Description: "x"}},
		{"без типа", ReportInput{MachineID: f.machineID, Description: "x"}},
		{"пустое описание", ReportInput{MachineID: f.machineID, Type: "ELECTRICAL", Description: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Report(context.Background(), scope, tt.in)
			assert.True(t, errors.Is(err, service.ErrValidation))
		})
	}

	open, err := f.store.ListOpenBreakdowns(context.Background(), f.machineID)
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Equal(t, storage.MachineIdle, f.machineStatus(t))
}

func TestReport_UnknownMachine(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)

	_, err := f.svc.Report(context.Background(), scope, ReportInput{MachineID: 404, Type: "MECHANICAL", Description: "x"})
	assert.True(t, errors.Is(err, service.ErrMachineNotFound))
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, err = f.svc.Report(context.Background(), service.Scope{TenantID: 2}, f.input(false))
	assert.True(t, errors.Is(err, service.ErrMachineNotFound))
	assert.Equal(t, storage.MachineIdle, f.machineStatus(t))
}

func TestReport_PartialFailureThenRetry(t *testing.T) {
	f := newFixture(t, storage.MachineBusy)
	ctx := context.Background()

	f.store.fail = true
	first, err := f.svc.Report(ctx, scope, f.input(true))
	require.Error(t, err)

	var stepErr *service.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "stamp task", stepErr.Step)
	assert.Equal(t, f.taskID, stepErr.ID)
	assert.True(t, errors.Is(err, service.ErrStore))

	// шаги до упавшего остаются
	require.NotNil(t, first)
	assert.Equal(t, storage.MachineDown, f.machineStatus(t))

	f.store.fail = false
	second, err := f.svc.Report(ctx, scope, f.input(true))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	open, err := f.store.ListOpenBreakdowns(ctx, f.machineID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	task, err := f.store.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	assert.NotNil(t, task.BreakdownAt)
}

func TestResolve_ReturnsMachineToIdle(t *testing.T) {
	f := newFixture(t, storage.MachineBusy)
	ctx := context.Background()

	b, err := f.svc.Report(ctx, scope, f.input(true))
	require.NoError(t, err)

	resolvedAt := reported.Add(2 * time.Hour)
	f.svc.SetClock(func() time.Time { return resolvedAt })

	resolved, err := f.svc.Resolve(ctx, scope, b.ID)
	require.NoError(t, err)

	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*resolved.ResolvedAt))
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, int64(7), *resolved.ResolvedBy)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, DefaultResolution, *resolved.Resolution)

	assert.Equal(t, storage.MachineIdle, f.machineStatus(t), "resolution never restores BUSY")

	task, err := f.store.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	assert.Nil(t, task.BreakdownNote)
	require.NotNil(t, task.BreakdownAt)
	assert.True(t, reported.Equal(*task.BreakdownAt))
	require.NotNil(t, task.BreakdownResolvedAt)
	assert.True(t, resolvedAt.Equal(*task.BreakdownResolvedAt))
}

func TestResolve_AlreadyResolved(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)
	ctx := context.Background()

	b, err := f.svc.Report(ctx, scope, f.input(false))
	require.NoError(t, err)

	first, err := f.svc.Resolve(ctx, scope, b.ID)
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return reported.Add(24 * time.Hour) })

	_, err = f.svc.Resolve(ctx, service.Scope{TenantID: 1, UserID: 99}, b.ID)
	assert.True(t, errors.Is(err, service.ErrAlreadyResolved))

	stored, err := f.store.GetBreakdown(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, first.ResolvedAt.Equal(*stored.ResolvedAt))
	assert.Equal(t, int64(7), *stored.ResolvedBy)
}

func TestResolve_OtherOpenBreakdownKeepsMachineDown(t *testing.T) {
	f := newFixture(t, storage.MachineBusy)
	ctx := context.Background()

	first, err := f.svc.Report(ctx, scope, f.input(false))
	require.NoError(t, err)

	_, err = f.svc.Report(ctx, scope, ReportInput{MachineID: f.machineID, Type: "ELECTRICAL", Description: "drive fault"})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, scope, first.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.MachineDown, f.machineStatus(t))

	open, err := f.svc.OpenForMachine(ctx, scope, f.machineID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	_, err = f.svc.Resolve(ctx, scope, open[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.MachineIdle, f.machineStatus(t))
}

func TestResolve_UnknownBreakdown(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)

	_, err := f.svc.Resolve(context.Background(), scope, 12345)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestOpenForMachine_UnknownMachine(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)

	_, err := f.svc.OpenForMachine(context.Background(), scope, 404)
	assert.True(t, errors.Is(err, service.ErrMachineNotFound))
}

func TestMachines_TenantAndActiveOnly(t *testing.T) {
	f := newFixture(t, storage.MachineDown)
	f.store.AddMachine(storage.Machine{TenantID: 1, Name: "Старый", Status: storage.MachineIdle, IsActive: false})
	f.store.AddMachine(storage.Machine{TenantID: 2, Name: "Чужой", Status: storage.MachineIdle, IsActive: true})

	machines, err := f.svc.Machines(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, f.machineID, machines[0].ID)
	assert.Equal(t, storage.MachineDown, machines[0].Status)

	none, err := f.svc.Machines(context.Background(), service.Scope{TenantID: 9})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReport_WritesDownOverStaleSnapshot(t *testing.T) {
	f := newFixture(t, storage.MachineDown)
	ctx := context.Background()

	// станок уже вернули в IDLE, а сервис видит старый DOWN
	f.store.afterGetMachine = func() {
		require.NoError(t, f.store.Storage.UpdateMachineStatus(ctx, f.machineID, storage.MachineIdle))
	}

	_, err := f.svc.Report(ctx, scope, f.input(false))
	require.NoError(t, err)
	assert.Equal(t, storage.MachineDown, f.machineStatus(t))
}

func TestResolve_BreakdownReportedMeanwhileKeepsDown(t *testing.T) {
	f := newFixture(t, storage.MachineIdle)
	ctx := context.Background()

	b, err := f.svc.Report(ctx, scope, f.input(false))
	require.NoError(t, err)

	f.store.afterResolve = func() {
		_, err := f.store.CreateBreakdown(ctx, &storage.Breakdown{TenantID: 1, MachineID: f.machineID,
			Type: "ELECTRICAL", Description: "short circuit", ReportedAt: reported})
		require.NoError(t, err)
	}

	_, err = f.svc.Resolve(ctx, scope, b.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.MachineDown, f.machineStatus(t))
}

func TestResolve_ClearsTaskWithoutReadingIt(t *testing.T) {
	f := newFixture(t, storage.MachineBusy)
	ctx := context.Background()

	b, err := f.svc.Report(ctx, scope, f.input(true))
	require.NoError(t, err)

	f.store.taskReads = 0
	_, err = f.svc.Resolve(ctx, scope, b.ID)
	require.NoError(t, err)
	assert.Zero(t, f.store.taskReads)

	task, err := f.store.Storage.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	assert.Nil(t, task.BreakdownNote)
	require.NotNil(t, task.BreakdownResolvedAt)
	require.NotNil(t, task.BreakdownAt)
	assert.True(t, reported.Equal(*task.BreakdownAt))
}
