package game

// FibbingIt is the bluffing game with an explicit reveal phase. Writing the
// real answer is allowed and scores on its own. The round moves on by itself
// once every player has answered, and again once every player has voted.
type FibbingIt struct {
	machine
}

func NewFibbingIt(opts Options) *FibbingIt {
	return &FibbingIt{machine: newMachine(TypeFibbingIt, []Phase{
		{Name: PhaseLobby, AllowedActions: []ActionType{ActionStart}},
		{Name: PhasePrompt, Duration: 25, AllowedActions: []ActionType{ActionSubmitAnswer}},
		{Name: PhaseChoose, Duration: 20, AllowedActions: []ActionType{ActionSubmitVote}},
		{Name: PhaseReveal, Duration: 15},
		{Name: PhaseScoring, Duration: 6},
		{Name: PhaseGameOver},
	}, opts)}
}

func (e *FibbingIt) ProcessAction(state State, action Action) Result {
	if action.Type == ActionStart {
		return e.start(state, action, e.PhaseEvents)
	}

	s := state.sess()
	if err := e.guard(s, action); err != nil {
		return rejected(state, err)
	}

	var (
		ns    *session
		err   error
		count int
	)
	switch action.Type {
	case ActionSubmitAnswer:
		ns, err = e.submitFib(s, action)
		if err == nil {
			count = len(ns.current.order)
		}
	case ActionSubmitVote:
		ns, err = e.submitVote(s, action)
		if err == nil {
			count = len(ns.current.votes)
		}
	default:
		err = InvalidPhaseAction(action.Type, s.phase)
	}
	if err != nil {
		return rejected(state, err)
	}

	events := submissionEvents(ns, action.PlayerID, action.Type, count)
	if count >= len(ns.players) {
		ns = e.advance(ns, e.onEnter)
		events = append(events, e.PhaseEvents(ns)...)
	}
	return accepted(ns, events)
}

func (e *FibbingIt) AdvancePhase(state State) State {
	return e.advance(state.sess(), e.onEnter)
}

func (e *FibbingIt) onEnter(s *session) {
	switch s.phase {
	case PhaseChoose:
		e.buildChoices(s)
	case PhaseReveal:
		e.scoreTruthfulAnswers(s)
		e.scoreVotes(s, e.opts.Scoring.VotePoints)
	}
}

func (e *FibbingIt) PhaseEvents(state State) []Event {
	s := state.sess()
	switch s.phase {
	case PhasePrompt:
		return []Event{e.promptEvent(s)}
	case PhaseChoose:
		return []Event{e.choicesEvent(s)}
	case PhaseReveal:
		return []Event{e.revealEvent(s)}
	case PhaseScoring:
		return []Event{e.scoresEvent(s)}
	case PhaseGameOver:
		return []Event{e.gameOverEvent(s)}
	}
	return nil
}
