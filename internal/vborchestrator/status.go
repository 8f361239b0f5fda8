package vborchestrator

// ProjectStatus summarises coverage and drift across every scanned unit
//.
type ProjectStatus struct {
	Total          int
	Uncompiled     int
	CompiledActive int
	Drifted        int
	MissingExample int
	Units          []UnitStatus
}

// Status scans the project and tallies each unit's state.
func (o *Orchestrator) Status() (ProjectStatus, error) {
	statuses, err := o.ScanStatus()
	if err != nil {
		return ProjectStatus{}, err
	}

	ps := ProjectStatus{Total: len(statuses), Units: statuses}
	for _, s := range statuses {
		switch s.State {
		case StateUncompiled:
			ps.Uncompiled++
		case StateCompiledActive:
			ps.CompiledActive++
		case StateDrifted:
			ps.Drifted++
		case StateMissingExamples:
			ps.MissingExample++
		}
	}
	return ps, nil
}
