package command

import (
	"strconv"
	"strings"

	"github.com/keshon/server-warden/internal/gateway"
)

// parseUser accepts <@id>, <@!id> or a bare numeric id.
func parseUser(arg string) (string, bool) {
	id := arg
	if strings.HasPrefix(arg, "<@") && strings.HasSuffix(arg, ">") {
		id = strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(arg, "<@"), ">"), "!")
	}
	if !isSnowflake(id) {
		return "", false
	}
	return id, true
}

func parseChannel(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "<#") || !strings.HasSuffix(arg, ">") {
		return "", false
	}
	id := arg[2 : len(arg)-1]
	return id, isSnowflake(id)
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// targetOrSelf takes a leading mention as the target, otherwise the author.
func targetOrSelf(c *Context, args []string) (string, []string) {
	if len(args) > 0 {
		if id, ok := parseUser(args[0]); ok {
			return id, args[1:]
		}
	}
	return c.Msg.AuthorID, args
}

func requireTarget(args []string) (string, []string, error) {
	if len(args) > 0 {
		if id, ok := parseUser(args[0]); ok {
			return id, args[1:], nil
		}
	}
	return "", args, gateway.Validationf("mention a member first")
}

func parseInt(arg, what string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, gateway.Validationf("%s must be a whole number, got %q", what, arg)
	}
	return n, nil
}

func mention(id string) string { return "<@" + id + ">" }
