package game

const maxAnswerLength = 80

// submitBluff records a fake answer. It may not match the real answer or
// another player's bluff.
func (m machine) submitBluff(s *session, action Action) (*session, error) {
	ns, err := m.submitText(s, action, maxAnswerLength)
	if err != nil {
		return nil, err
	}

	candidate := normalizeAnswer(action.Data.Answer)
	if isTruth(s.current, candidate) {
		return nil, InvalidInput("that is the real answer, try to bluff")
	}
	for id, other := range s.current.answers {
		if id != action.PlayerID && normalizeAnswer(other) == candidate {
			return nil, InvalidInput("someone already submitted that answer")
		}
	}
	return ns, nil
}

// submitFib records an answer that may be the real one. Two players may
// only share an answer when both found the truth.
func (m machine) submitFib(s *session, action Action) (*session, error) {
	ns, err := m.submitText(s, action, maxAnswerLength)
	if err != nil {
		return nil, err
	}

	candidate := normalizeAnswer(action.Data.Answer)
	if isTruth(s.current, candidate) {
		return ns, nil
	}
	for id, other := range s.current.answers {
		if id != action.PlayerID && normalizeAnswer(other) == candidate {
			return nil, InvalidInput("someone already submitted that answer")
		}
	}
	return ns, nil
}

// isTruth reports whether a normalized answer matches the round's real answer.
func isTruth(r *round, normalized string) bool {
	truth := normalizeAnswer(r.prompt.Answer)
	return truth != "" && normalized == truth
}

// answeredTruth reports whether id submitted the real answer this round.
func answeredTruth(r *round, id string) bool {
	answer, ok := r.answers[id]
	return ok && isTruth(r, normalizeAnswer(answer))
}

// submitVote records a vote for one of the offered choices.
func (m machine) submitVote(s *session, action Action) (*session, error) {
	choiceID := action.Data.ChoiceID
	if _, voted := s.current.votes[action.PlayerID]; voted {
		return nil, InvalidInput("you have already voted")
	}
	if choiceID == action.PlayerID {
		return nil, InvalidInput("you cannot vote for your own answer")
	}
	found := false
	for _, c := range s.current.choices {
		if c.ID == choiceID {
			found = true
			break
		}
	}
	if !found {
		return nil, InvalidInput("unknown choice %q", choiceID)
	}

	ns := s.clone()
	ns.current.votes[action.PlayerID] = choiceID
	return ns, nil
}

// buildChoices offers the true answer plus every submitted bluff, shuffled.
// Answers that match the truth are folded into the truth choice.
func (m machine) buildChoices(s *session) {
	r := s.current
	choices := make([]Choice, 0, len(r.order)+1)
	choices = append(choices, Choice{ID: TruthChoiceID(r.prompt.ID), Text: r.prompt.Answer})
	for _, id := range r.order {
		if answeredTruth(r, id) {
			continue
		}
		choices = append(choices, Choice{ID: id, Text: r.answers[id]})
	}
	m.shuffle(choices)
	r.choices = choices
}

// scoreTruthfulAnswers awards CorrectAnswer to every player whose written
// answer was the real one.
func (m machine) scoreTruthfulAnswers(s *session) {
	r := s.current
	for _, id := range r.order {
		if answeredTruth(r, id) && s.hasPlayer(id) {
			r.deltas[id] += m.opts.Scoring.CorrectAnswer
		}
	}
}

// scoreVotes awards CorrectAnswer to everyone who found the truth and
// perFooled to a bluff's author for every player it fooled. A player who
// already wrote the truth gets nothing more for voting it.
func (m machine) scoreVotes(s *session, perFooled int) {
	r := s.current
	truth := TruthChoiceID(r.prompt.ID)
	for voter, choice := range r.votes {
		switch {
		case choice == truth:
			if !answeredTruth(r, voter) {
				r.deltas[voter] += m.opts.Scoring.CorrectAnswer
			}
		case s.hasPlayer(choice):
			r.deltas[choice] += perFooled
		}
	}
	s.applyDeltas()
}

func (m machine) choicesEvent(s *session) Event {
	return Broadcast(EventChoices, ChoicesPayload{
		Choices:  append([]Choice(nil), s.current.choices...),
		Duration: s.timeLeft,
	})
}

func (m machine) revealEvent(s *session) Event {
	r := s.current
	truth := TruthChoiceID(r.prompt.ID)
	revealed := make([]RevealedChoice, 0, len(r.choices))
	for _, c := range r.choices {
		rc := RevealedChoice{Choice: c, Truth: c.ID == truth, Voters: []string{}}
		if !rc.Truth {
			rc.AuthorID = c.ID
		}
		for _, p := range s.players {
			if r.votes[p.ID] == c.ID {
				rc.Voters = append(rc.Voters, p.ID)
			}
		}
		revealed = append(revealed, rc)
	}
	return Broadcast(EventReveal, RevealPayload{
		PromptID: r.prompt.ID,
		Answer:   r.prompt.Answer,
		Choices:  revealed,
	})
}
