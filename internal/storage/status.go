package storage

type OrderStatus string

const (
	OrderDraft        OrderStatus = "DRAFT"
	OrderConfirmed    OrderStatus = "CONFIRMED"
	OrderInProduction OrderStatus = "IN_PRODUCTION"
	OrderReady        OrderStatus = "READY"
	OrderDelivered    OrderStatus = "DELIVERED"
	OrderCancelled    OrderStatus = "CANCELLED"
	OrderClosed       OrderStatus = "CLOSED"
)

var terminalOrderStatuses = map[OrderStatus]bool{
	OrderDelivered: true,
	OrderCancelled: true,
	OrderClosed:    true,
}

func (s OrderStatus) IsTerminal() bool {
	return terminalOrderStatuses[s]
}

// TerminalOrderStatuses нужен для фильтра в SQL (NOT IN ...).
func TerminalOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderDelivered, OrderCancelled, OrderClosed}
}

// WorkStatus общий статус для MO и нарядов (jobsheet).
type WorkStatus string

const (
	WorkPlanned    WorkStatus = "PLANNED"
	WorkReleased   WorkStatus = "RELEASED"
	WorkInProgress WorkStatus = "IN_PROGRESS"
	WorkCompleted  WorkStatus = "COMPLETED"
	WorkCancelled  WorkStatus = "CANCELLED"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskAssigned  TaskStatus = "ASSIGNED"
	TaskRunning   TaskStatus = "RUNNING"
	TaskPaused    TaskStatus = "PAUSED"
	TaskOnHold    TaskStatus = "ON_HOLD"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskCancelled TaskStatus = "CANCELLED"
)

func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

type MachineStatus string

const (
	MachineIdle MachineStatus = "IDLE"
	MachineBusy MachineStatus = "BUSY"
	MachineDown MachineStatus = "DOWN"
)
