package nlp

// chunk finds noun phrases and links them into a shallow dependency tree:
//
//	NP  := (DET)? (ADJ|NUM)* (NOUN|PROPN)+ (NUM)?   head = last nominal
//	NP  := PRON
//	PP  := ADP NP                                     NP head is pobj of ADP
//
// Modifiers inside a phrase attach to its head; the first verb of the text is
// the root and phrases without a preposition attach to it. A phrase never
// crosses the edge of a date span.
func chunk(tokens []Token, dates []Span) []Span {
	zone := make([]int, len(tokens))
	for i := range zone {
		zone[i] = -1
	}
	for n, d := range dates {
		for k := d.Start; k < d.End && k < len(tokens); k++ {
			zone[k] = n
		}
	}

	for i := range tokens {
		tokens[i].Head = i
		tokens[i].Dep = ""
	}

	root := -1
	for i, t := range tokens {
		if t.POS == Verb {
			root = i
			break
		}
	}
	if root >= 0 {
		tokens[root].Dep = DepRoot
	}

	var chunks []Span
	for i := 0; i < len(tokens); {
		sp, ok := nounPhraseAt(tokens, zone, i)
		if !ok {
			i++
			continue
		}
		attachPhrase(tokens, sp, root)
		chunks = append(chunks, sp)
		i = sp.End
	}
	return chunks
}

func nounPhraseAt(tokens []Token, zone []int, start int) (Span, bool) {
	if tokens[start].POS == Pronoun {
		return Span{Start: start, End: start + 1, Root: start}, true
	}

	in := func(i int) bool { return i < len(tokens) && zone[i] == zone[start] }
	i := start
	if tokens[i].POS == Determiner {
		i++
	}
	for in(i) && (tokens[i].POS == Adjective || tokens[i].POS == Numeral) {
		i++
	}
	nounStart := i
	for in(i) && tokens[i].POS.IsNominal() {
		i++
	}
	if i == nounStart {
		return Span{}, false
	}
	head := i - 1
	// "Room 204", "Gate 3"
	if in(i) && tokens[i].POS == Numeral && tokens[head].POS == ProperNoun {
		i++
	}
	return Span{Start: start, End: i, Root: head}, true
}

func attachPhrase(tokens []Token, sp Span, root int) {
	head := sp.Root
	for k := sp.Start; k < sp.End; k++ {
		if k == head {
			continue
		}
		tokens[k].Head = head
		switch tokens[k].POS {
		case Determiner:
			tokens[k].Dep = DepDet
		case Adjective:
			tokens[k].Dep = DepAmod
		case Numeral:
			tokens[k].Dep = DepNummod
		default:
			tokens[k].Dep = DepCompound
		}
	}

	if sp.Start > 0 && tokens[sp.Start-1].POS == Adposition {
		prep := sp.Start - 1
		tokens[head].Head = prep
		tokens[head].Dep = DepPobj
		tokens[prep].Dep = DepPrep
		if root >= 0 {
			tokens[prep].Head = root
		}
		return
	}

	if root < 0 {
		tokens[head].Dep = DepRoot
		return
	}
	tokens[head].Head = root
	if head < root {
		tokens[head].Dep = DepNsubj
	} else {
		tokens[head].Dep = DepDobj
	}
}
