package git

import "strings"

// ConfigGet reads one configuration value; global reads the user-level
// file instead of the repository's.
func (s *Service) ConfigGet(key string, global bool) (string, error) {
	args := []string{"config"}
	if global {
		args = append(args, "--global")
	}
	args = append(args, "--get", key)
	out, err := s.query("config-get", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConfigSet writes one configuration value.
func (s *Service) ConfigSet(key, value string, global bool) Outcome {
	args := []string{"config"}
	if global {
		args = append(args, "--global")
	}
	args = append(args, key, value)
	return s.execute("config-set", args...)
}

// SetUserInfo sets the commit identity used for new commits.
func (s *Service) SetUserInfo(name, email string, global bool) Outcome {
	if out := s.ConfigSet("user.name", name, global); !out.Success() {
		return out
	}
	return s.ConfigSet("user.email", email, global)
}
