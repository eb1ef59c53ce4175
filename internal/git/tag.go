package git

import "strings"

// tagFormat drives for-each-ref over tag refs: short name, object hash,
// peeled hash (annotated tags only), object type, creation date, subject.
const tagFormat = "%(refname:short)|%(objectname)|%(*objectname)|%(objecttype)|%(creatordate:iso8601)|%(contents:subject)"

// Tags lists all tags.
func (s *Service) Tags() ([]Tag, error) {
	out, err := s.query("tags", "for-each-ref", "--format="+tagFormat, "refs/tags")
	if err != nil {
		return nil, err
	}
	return ParseTags(out), nil
}

// ParseTags parses for-each-ref records in tagFormat. An annotated tag is
// its own object pointing at a commit, so its target is the peeled hash;
// a lightweight tag points at the commit directly.
func ParseTags(raw string) []Tag {
	var tags []Tag
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 6 {
			continue
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			continue
		}
		t := Tag{
			Name:        name,
			Hash:        strings.TrimSpace(fields[1]),
			IsAnnotated: strings.TrimSpace(fields[3]) == "tag",
			Message:     strings.Join(fields[5:], "|"),
			CreatedAt:   parseISODate(fields[4]),
		}
		if peeled := strings.TrimSpace(fields[2]); peeled != "" {
			t.Hash = peeled
		}
		tags = append(tags, t)
	}
	return tags
}
