package git

import "strings"

// Remotes lists the configured remotes with their fetch and push URLs.
func (s *Service) Remotes() ([]Remote, error) {
	out, err := s.query("remotes", "remote", "-v")
	if err != nil {
		return nil, err
	}
	return ParseRemotes(out), nil
}

// ParseRemotes folds `remote -v` lines, which repeat each remote once per
// direction, into one Remote per name. Order of first appearance is kept.
func ParseRemotes(raw string) []Remote {
	var remotes []Remote
	index := map[string]int{}
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, url := fields[0], fields[1]
		i, seen := index[name]
		if !seen {
			remotes = append(remotes, Remote{Name: name})
			i = len(remotes) - 1
			index[name] = i
		}
		direction := ""
		if len(fields) >= 3 {
			direction = fields[2]
		}
		switch direction {
		case "(push)":
			remotes[i].PushURL = url
		case "(fetch)":
			remotes[i].FetchURL = url
		default:
			if remotes[i].FetchURL == "" {
				remotes[i].FetchURL = url
			}
			if remotes[i].PushURL == "" {
				remotes[i].PushURL = url
			}
		}
	}
	return remotes
}
