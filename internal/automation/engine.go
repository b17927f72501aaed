// Package automation evaluates project automation rules against task mutation events.
//
// A mutation produces one or more events. Process walks them breadth-first: every event
// is matched against the active rules of its project, matching rules apply their action
// through a TaskMutator, and the events those actions produce are queued one level deeper.
// The chain stops when the queue drains or when a rule would fire at the depth limit.
package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
)

// DefaultMaxChainDepth bounds how many rule hops a single mutation may cause
const DefaultMaxChainDepth = 10

// ErrCycleDetected is reported when a rule chain reaches the depth limit
var ErrCycleDetected = errors.New("rule chain depth limit reached")

// ErrUserNotFound is returned by assign_task when the configured user no longer exists
var ErrUserNotFound = errors.New("assignee does not exist")

// TaskMutator applies rule actions to tasks. Implementations persist the change and
// return the resulting mutation events without dispatching them.
type TaskMutator interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	ChangeStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus, actor domain.Actor) ([]domain.MutationEvent, error)
	ChangePriority(ctx context.Context, taskID uuid.UUID, priority domain.TaskPriority, actor domain.Actor) ([]domain.MutationEvent, error)
	Assign(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error)
	MoveToGroup(ctx context.Context, taskID, groupID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error)
	CreateSubtask(ctx context.Context, parentID uuid.UUID, title, description string, actor domain.Actor) ([]domain.MutationEvent, error)
}

// UserDirectory checks that a user referenced by a rule still exists
type UserDirectory interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Broadcaster is told when a project's board changed so open views can refresh
type Broadcaster interface {
	BoardChanged(projectID uuid.UUID, taskIDs []uuid.UUID)
}

// ActionError wraps a failed rule action. It never fails the triggering mutation.
type ActionError struct {
	RuleID uuid.UUID
	Action domain.ActionType
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s action %s failed: %v", e.RuleID, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Firing describes one rule that matched during a chain
type Firing struct {
	RuleID   uuid.UUID         `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	TaskID   uuid.UUID         `json:"task_id"`
	Action   domain.ActionType `json:"action"`
	Depth    int               `json:"depth"`
	Error    string            `json:"error,omitempty"`
}

// ChainResult summarizes one chain evaluation
type ChainResult struct {
	EventsProcessed int      `json:"events_processed"`
	Firings         []Firing `json:"firings"`
	MaxDepth        int      `json:"max_depth"`
	CycleDetected   bool     `json:"cycle_detected"`
}

// Failed counts firings whose action failed
func (r *ChainResult) Failed() int {
	n := 0
	for _, f := range r.Firings {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// Engine is the rule evaluator. It is stateless between chains and safe for concurrent use.
type Engine struct {
	rules       repository.RuleRepository
	activities  repository.ActivityRepository
	notifier    client.NotificationClient
	users       UserDirectory
	broadcaster Broadcaster
	maxDepth    int
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Options holds the optional collaborators of an Engine
type Options struct {
	Activities  repository.ActivityRepository
	Notifier    client.NotificationClient
	Users       UserDirectory
	Broadcaster Broadcaster
	MaxDepth    int
	Metrics     *metrics.Metrics
}

// NewEngine creates a rule engine
func NewEngine(rules repository.RuleRepository, opts Options, logger *zap.Logger) *Engine {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxChainDepth
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = client.NewNoOpNotificationClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:       rules,
		activities:  opts.Activities,
		notifier:    notifier,
		users:       opts.Users,
		broadcaster: opts.Broadcaster,
		maxDepth:    maxDepth,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// MaxDepth returns the configured chain depth limit
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

type queuedEvent struct {
	event domain.MutationEvent
	depth int
}

type firingKey struct {
	ruleID uuid.UUID
	taskID uuid.UUID
	kind   domain.EventKind
}

type chain struct {
	queue    []queuedEvent
	seen     map[firingKey]struct{}
	result   *ChainResult
	projects map[uuid.UUID][]uuid.UUID
}

func newChain() *chain {
	return &chain{
		seen:     make(map[firingKey]struct{}),
		result:   &ChainResult{Firings: []Firing{}},
		projects: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (c *chain) push(events []domain.MutationEvent, depth int) {
	for _, ev := range events {
		c.queue = append(c.queue, queuedEvent{event: ev, depth: depth})
	}
}

// Process runs the rule chain started by events produced by one user mutation
func (e *Engine) Process(ctx context.Context, mutator TaskMutator, events []domain.MutationEvent) *ChainResult {
	c := newChain()
	c.push(events, 0)
	e.run(ctx, mutator, c)
	e.finish(c)
	return c.result
}

// FireScheduled applies a single rule selected outside the event path (due-date scan)
// and then runs the chain its action starts
func (e *Engine) FireScheduled(ctx context.Context, mutator TaskMutator, rule *domain.AutomationRule, event domain.MutationEvent) *ChainResult {
	c := newChain()
	c.result.EventsProcessed++
	e.touch(c, event)
	e.record(ctx, event, 0)

	c.seen[firingKey{rule.ID, event.TaskID, event.Kind}] = struct{}{}
	produced := e.fire(ctx, mutator, c, rule, event, 0)
	c.push(produced, 1)

	e.run(ctx, mutator, c)
	e.finish(c)
	return c.result
}

func (e *Engine) run(ctx context.Context, mutator TaskMutator, c *chain) {
	for len(c.queue) > 0 {
		item := c.queue[0]
		c.queue = c.queue[1:]
		ev := item.event

		c.result.EventsProcessed++
		if item.depth > c.result.MaxDepth {
			c.result.MaxDepth = item.depth
		}
		e.touch(c, ev)
		e.record(ctx, ev, item.depth)

		trigger, ok := TriggerFor(ev.Kind)
		if !ok {
			continue
		}
		rules, err := e.rules.FindActiveByProjectAndTrigger(ctx, ev.ProjectID, trigger)
		if err != nil {
			e.logger.Error("Failed to load automation rules",
				zap.String("project_id", ev.ProjectID.String()),
				zap.String("trigger", string(trigger)),
				zap.Error(err),
			)
			continue
		}

		for _, rule := range rules {
			if !e.matches(rule, ev) {
				continue
			}
			key := firingKey{rule.ID, ev.TaskID, ev.Kind}
			if _, dup := c.seen[key]; dup {
				e.logger.Debug("Rule already fired in this chain",
					zap.String("rule_id", rule.ID.String()),
					zap.String("task_id", ev.TaskID.String()),
				)
				if e.metrics != nil {
					e.metrics.RecordRuleFiring(string(rule.Trigger), string(rule.Action), metrics.RuleResultSkipped)
				}
				continue
			}
			if item.depth >= e.maxDepth {
				c.result.CycleDetected = true
				c.queue = nil
				e.logger.Warn("Rule chain aborted at depth limit",
					zap.String("rule_id", rule.ID.String()),
					zap.String("task_id", ev.TaskID.String()),
					zap.Int("depth", item.depth),
					zap.Int("max_depth", e.maxDepth),
					zap.Error(ErrCycleDetected),
				)
				if e.metrics != nil {
					e.metrics.IncrementRuleCycles()
				}
				return
			}
			c.seen[key] = struct{}{}
			produced := e.fire(ctx, mutator, c, rule, ev, item.depth)
			c.push(produced, item.depth+1)
		}
	}
}

// fire applies one rule action; failures are logged and recorded, never propagated
func (e *Engine) fire(ctx context.Context, mutator TaskMutator, c *chain, rule *domain.AutomationRule, ev domain.MutationEvent, depth int) []domain.MutationEvent {
	firing := Firing{RuleID: rule.ID, RuleName: rule.Name, TaskID: ev.TaskID, Action: rule.Action, Depth: depth}

	produced, err := e.apply(ctx, mutator, rule, ev)
	result := metrics.RuleResultApplied
	if err != nil {
		actionErr := &ActionError{RuleID: rule.ID, Action: rule.Action, Err: err}
		firing.Error = actionErr.Error()
		result = metrics.RuleResultFailed
		e.logger.Warn("Automation action failed",
			zap.String("rule_id", rule.ID.String()),
			zap.String("rule_name", rule.Name),
			zap.String("task_id", ev.TaskID.String()),
			zap.String("action", string(rule.Action)),
			zap.Error(err),
		)
	} else {
		e.logger.Info("Automation rule fired",
			zap.String("rule_id", rule.ID.String()),
			zap.String("task_id", ev.TaskID.String()),
			zap.String("action", string(rule.Action)),
			zap.Int("depth", depth),
		)
	}
	if e.metrics != nil {
		e.metrics.RecordRuleFiring(string(rule.Trigger), string(rule.Action), result)
	}
	c.result.Firings = append(c.result.Firings, firing)
	return produced
}

func (e *Engine) apply(ctx context.Context, mutator TaskMutator, rule *domain.AutomationRule, ev domain.MutationEvent) ([]domain.MutationEvent, error) {
	cfg, err := rule.DecodedAction()
	if err != nil {
		return nil, err
	}
	actor := domain.RuleActor(rule.ID)

	switch a := cfg.(type) {
	case domain.ChangeStatusAction:
		return mutator.ChangeStatus(ctx, ev.TaskID, a.NewStatus, actor)
	case domain.UpdatePriorityAction:
		return mutator.ChangePriority(ctx, ev.TaskID, a.NewPriority, actor)
	case domain.AssignTaskAction:
		if e.users != nil {
			exists, err := e.users.UserExists(ctx, a.AssignTo)
			if err != nil {
				return nil, fmt.Errorf("user lookup: %w", err)
			}
			if !exists {
				return nil, fmt.Errorf("%w: %s", ErrUserNotFound, a.AssignTo)
			}
		}
		return mutator.Assign(ctx, ev.TaskID, a.AssignTo, actor)
	case domain.MoveToGroupAction:
		return mutator.MoveToGroup(ctx, ev.TaskID, a.TargetGroupID, actor)
	case domain.CreateSubtaskAction:
		return mutator.CreateSubtask(ctx, ev.TaskID, a.Title, a.Description, actor)
	case domain.SendNotificationAction:
		return nil, e.notify(ctx, mutator, rule, a, ev)
	default:
		return nil, fmt.Errorf("unsupported action %q", rule.Action)
	}
}

// notify sends to recipientId, else the assignee, else the task creator
func (e *Engine) notify(ctx context.Context, mutator TaskMutator, rule *domain.AutomationRule, a domain.SendNotificationAction, ev domain.MutationEvent) error {
	task, err := mutator.GetTask(ctx, ev.TaskID)
	if err != nil {
		return err
	}
	recipient := task.CreatedBy
	switch {
	case a.RecipientID != nil:
		recipient = *a.RecipientID
	case task.AssigneeID != nil:
		recipient = *task.AssigneeID
	}

	notificationType := client.NotificationAutomationRule
	if ev.Kind == domain.EventDueDateApproaching {
		notificationType = client.NotificationDueDateSoon
	}
	return e.notifier.SendNotification(ctx, client.NotificationEvent{
		Type:         notificationType,
		TargetUserID: recipient,
		ResourceType: client.ResourceTypeTask,
		ResourceID:   task.ID,
		ResourceName: task.Title,
		Metadata: map[string]interface{}{
			"message":   a.Message,
			"ruleId":    rule.ID.String(),
			"ruleName":  rule.Name,
			"projectId": task.ProjectID.String(),
			"event":     string(ev.Kind),
		},
	})
}

func (e *Engine) matches(rule *domain.AutomationRule, ev domain.MutationEvent) bool {
	cfg, err := rule.DecodedTrigger()
	if err != nil {
		e.logger.Warn("Skipping rule with invalid trigger config",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return Matches(cfg, ev)
}

// Matches reports whether an event-driven trigger config accepts ev
func Matches(cfg domain.TriggerConfig, ev domain.MutationEvent) bool {
	switch c := cfg.(type) {
	case domain.StatusChangeTrigger:
		return ev.Field == domain.FieldStatus && c.Matches(ev.OldValue, ev.NewValue)
	case domain.TaskAssignedTrigger:
		return ev.Field == domain.FieldAssignee && ev.NewValue != "" && c.Matches(ev.NewValue)
	case domain.KindTrigger:
		trigger, ok := TriggerFor(ev.Kind)
		return ok && trigger == c.TriggerType()
	default:
		// due-date rules are selected by the scanner, not by events
		return false
	}
}

// TriggerFor maps an event kind to the trigger type that listens for it
func TriggerFor(kind domain.EventKind) (domain.TriggerType, bool) {
	switch kind {
	case domain.EventStatusChanged:
		return domain.TriggerStatusChange, true
	case domain.EventTaskAssigned:
		return domain.TriggerTaskAssigned, true
	case domain.EventCommentAdded:
		return domain.TriggerCommentAdded, true
	case domain.EventSubtaskCompleted:
		return domain.TriggerSubtaskCompleted, true
	case domain.EventAttachmentAdded:
		return domain.TriggerAttachmentAdded, true
	default:
		return "", false
	}
}

func (e *Engine) touch(c *chain, ev domain.MutationEvent) {
	c.projects[ev.ProjectID] = append(c.projects[ev.ProjectID], ev.TaskID)
}

func (e *Engine) record(ctx context.Context, ev domain.MutationEvent, depth int) {
	if e.activities == nil || ev.Kind == domain.EventTaskDeleted {
		return
	}
	if err := e.activities.Create(ctx, domain.NewTaskActivity(ev, depth)); err != nil {
		e.logger.Warn("Failed to record task activity",
			zap.String("task_id", ev.TaskID.String()),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
	}
}

func (e *Engine) finish(c *chain) {
	if e.metrics != nil && c.result.EventsProcessed > 0 {
		e.metrics.ObserveRuleChainDepth(c.result.MaxDepth)
	}
	if e.broadcaster == nil {
		return
	}
	for projectID, taskIDs := range c.projects {
		e.broadcaster.BoardChanged(projectID, uniqueIDs(taskIDs))
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
