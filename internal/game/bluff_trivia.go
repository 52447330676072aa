package game

// BluffTrivia asks a trivia question, collects a bluff from every player and
// then has everyone vote for what they believe is the real answer.
type BluffTrivia struct {
	machine
}

func NewBluffTrivia(opts Options) *BluffTrivia {
	return &BluffTrivia{machine: newMachine(TypeBluffTrivia, []Phase{
		{Name: PhaseLobby, AllowedActions: []ActionType{ActionStart}},
		{Name: PhasePrompt, Duration: 15, AllowedActions: []ActionType{ActionSubmitAnswer}},
		{Name: PhaseChoose, Duration: 20, AllowedActions: []ActionType{ActionSubmitVote}},
		{Name: PhaseScoring, Duration: 6},
		{Name: PhaseGameOver},
	}, opts)}
}

func (e *BluffTrivia) ProcessAction(state State, action Action) Result {
	if action.Type == ActionStart {
		return e.start(state, action, e.PhaseEvents)
	}

	s := state.sess()
	if err := e.guard(s, action); err != nil {
		return rejected(state, err)
	}

	switch action.Type {
	case ActionSubmitAnswer:
		ns, err := e.submitBluff(s, action)
		if err != nil {
			return rejected(state, err)
		}
		return accepted(ns, submissionEvents(ns, action.PlayerID, action.Type, len(ns.current.order)))
	case ActionSubmitVote:
		ns, err := e.submitVote(s, action)
		if err != nil {
			return rejected(state, err)
		}
		return accepted(ns, submissionEvents(ns, action.PlayerID, action.Type, len(ns.current.votes)))
	}
	return rejected(state, InvalidPhaseAction(action.Type, s.phase))
}

func (e *BluffTrivia) AdvancePhase(state State) State {
	return e.advance(state.sess(), e.onEnter)
}

func (e *BluffTrivia) onEnter(s *session) {
	switch s.phase {
	case PhaseChoose:
		e.buildChoices(s)
	case PhaseScoring:
		e.scoreVotes(s, e.opts.Scoring.BluffPoints)
	}
}

func (e *BluffTrivia) PhaseEvents(state State) []Event {
	s := state.sess()
	switch s.phase {
	case PhasePrompt:
		return []Event{e.promptEvent(s)}
	case PhaseChoose:
		return []Event{e.choicesEvent(s)}
	case PhaseScoring:
		return []Event{e.revealEvent(s), e.scoresEvent(s)}
	case PhaseGameOver:
		return []Event{e.gameOverEvent(s)}
	}
	return nil
}
