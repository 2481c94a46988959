package evalengine

import "fmt"

// BuildWorkflow validates the task set and compiles its dependency-ordered
// execution plan via Kahn's algorithm. Cycle detection, level-1
// bound-parameter requirements, and terminal-task shape/id checks are
// all construction-time errors.
func BuildWorkflow(tasks []*Task, metrics []Metric) (*Workflow, error) {
	if err := validateTasks(tasks); err != nil {
		return nil, fmt.Errorf("invalid task set: %w", err)
	}

	w := &Workflow{
		Tasks:   tasks,
		Metrics: metrics,
		byID:    make(map[string]*Task, len(tasks)),
	}
	for _, t := range tasks {
		w.byID[t.ID] = t
	}

	plan, err := executionPlan(tasks)
	if err != nil {
		return nil, err
	}
	w.plan = plan

	if err := validateLevel1BoundParams(plan, w.byID); err != nil {
		return nil, err
	}
	if err := validateTerminalTasks(plan, w.byID, metrics); err != nil {
		return nil, err
	}

	return w, nil
}

// executionPlan computes task levels via Kahn's algorithm: each level is
// the frontier of tasks whose dependencies are all already scheduled. A
// non-empty frontier that leaves tasks unvisited indicates a cycle.
func executionPlan(tasks []*Task) ([][]string, error) {
	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		if _, ok := indegree[t.ID]; !ok {
			indegree[t.ID] = 0
		}
		for _, dep := range t.DependsOn {
			d := NormalizeID(dep)
			indegree[t.ID]++
			dependents[d] = append(dependents[d], t.ID)
		}
	}

	var plan [][]string
	visited := make(map[string]bool, len(tasks))
	for {
		var frontier []string
		for id, deg := range indegree {
			if deg == 0 && !visited[id] {
				frontier = append(frontier, id)
			}
		}
		if len(frontier) == 0 {
			break
		}
		for _, id := range frontier {
			visited[id] = true
			for _, dep := range dependents[id] {
				indegree[dep]--
			}
		}
		plan = append(plan, frontier)
	}

	if len(visited) != len(tasks) {
		return nil, fmt.Errorf("task dependency graph has a cycle")
	}
	return plan, nil
}

func validateLevel1BoundParams(plan [][]string, byID map[string]*Task) error {
	if len(plan) == 0 {
		return nil
	}
	for _, id := range plan[0] {
		t := byID[id]
		if t.Kind == TaskLLMJudge && len(t.BoundParams) == 0 {
			return fmt.Errorf("level-1 task %q must have at least one bound prompt parameter", id)
		}
	}
	return nil
}

func validateTerminalTasks(plan [][]string, byID map[string]*Task, metrics []Metric) error {
	if len(plan) == 0 {
		return nil
	}
	terminal := plan[len(plan)-1]
	wantMetrics := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		wantMetrics[NormalizeID(m.ID)] = true
	}
	gotIDs := make(map[string]bool, len(terminal))
	for _, id := range terminal {
		t := byID[id]
		if t.Kind == TaskLLMJudge && t.ResponseType != ResponseTypeScore {
			return fmt.Errorf("terminal task %q must have response type Score, got %q", id, t.ResponseType)
		}
		gotIDs[id] = true
	}
	for want := range wantMetrics {
		if !gotIDs[want] {
			return fmt.Errorf("declared metric %q has no matching terminal task", want)
		}
	}
	for got := range gotIDs {
		if !wantMetrics[got] {
			return fmt.Errorf("terminal task %q is not a declared metric", got)
		}
	}
	return nil
}
