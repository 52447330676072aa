package game

const maxWordLength = 30

// WordAssociation shows a seed word and rewards players whose association
// matches somebody else's.
type WordAssociation struct {
	machine
}

func NewWordAssociation(opts Options) *WordAssociation {
	return &WordAssociation{machine: newMachine(TypeWordAssociation, []Phase{
		{Name: PhaseLobby, AllowedActions: []ActionType{ActionStart}},
		{Name: PhasePrompt, Duration: 45, AllowedActions: []ActionType{ActionSubmitAnswer}},
		{Name: PhaseScoring, Duration: 15},
		{Name: PhaseGameOver},
	}, opts)}
}

func (e *WordAssociation) ProcessAction(state State, action Action) Result {
	if action.Type == ActionStart {
		return e.start(state, action, e.PhaseEvents)
	}

	s := state.sess()
	if err := e.guard(s, action); err != nil {
		return rejected(state, err)
	}
	if action.Type != ActionSubmitAnswer {
		return rejected(state, InvalidPhaseAction(action.Type, s.phase))
	}

	ns, err := e.submitText(s, action, maxWordLength)
	if err != nil {
		return rejected(state, err)
	}
	return accepted(ns, submissionEvents(ns, action.PlayerID, action.Type, len(ns.current.order)))
}

func (e *WordAssociation) AdvancePhase(state State) State {
	return e.advance(state.sess(), e.onEnter)
}

func (e *WordAssociation) onEnter(s *session) {
	if s.phase != PhaseScoring {
		return
	}
	r := s.current
	counts := make(map[string]int, len(r.answers))
	for _, w := range r.answers {
		counts[normalizeAnswer(w)]++
	}
	for id, w := range r.answers {
		if n := counts[normalizeAnswer(w)]; n > 1 {
			r.deltas[id] += (n - 1) * e.opts.Scoring.MatchPoints
		}
	}
	s.applyDeltas()
}

func (e *WordAssociation) PhaseEvents(state State) []Event {
	s := state.sess()
	switch s.phase {
	case PhasePrompt:
		return []Event{e.promptEvent(s)}
	case PhaseScoring:
		words := make(map[string]string, len(s.current.answers))
		for id, w := range s.current.answers {
			words[id] = w
		}
		return []Event{
			Broadcast(EventReveal, RevealPayload{PromptID: s.current.prompt.ID, Words: words}),
			e.scoresEvent(s),
		}
	case PhaseGameOver:
		return []Event{e.gameOverEvent(s)}
	}
	return nil
}
