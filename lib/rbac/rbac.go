package rbac

import (
	"regexp"
	"slices"
	"strings"

	"org-portal-backend/models"

	"github.com/pkg/errors"
)

type Provider interface {
	// GetRuleFunc finds the rule of a request, params holds the {name} segments of its pattern
	GetRuleFunc(method, path string) (handler models.RbacFunc, params map[string]string, found bool)
	RegisterRule(module models.Module, permission models.Permission, roles []models.UserRole, swaggerPattern string, handler models.RbacFunc) error
	GetPermissions(role models.UserRole) map[models.Module][]models.Permission
}

var Instance Provider

func NewHandler() {
	i := &impl{
		rules:       map[HTTPMethod]*PathRule{},
		permissions: map[models.UserRole]map[models.Module][]models.Permission{},
	}
	Instance = i
	i.initRules()
}

type impl struct {
	rules       map[HTTPMethod]*PathRule
	permissions map[models.UserRole]map[models.Module][]models.Permission
}

func (i *impl) GetRuleFunc(method, path string) (models.RbacFunc, map[string]string, bool) {
	pathRule, exists := i.rules[HTTPMethod(strings.ToUpper(method))]
	if !exists {
		return nil, nil, false
	}
	path = normalizePath(path)
	if handler, found := pathRule.Exact[path]; found {
		return handler, map[string]string{}, true
	}
	for _, patternRule := range pathRule.Patterns {
		match := patternRule.Pattern.FindStringSubmatch(path)
		if match == nil {
			continue
		}
		params := map[string]string{}
		for idx, name := range patternRule.Pattern.SubexpNames() {
			if name != "" {
				params[name] = match[idx]
			}
		}
		return patternRule.Handler, params, true
	}
	return nil, nil, false
}

func (i *impl) RegisterRule(module models.Module, permission models.Permission, roles []models.UserRole, swaggerPattern string, handler models.RbacFunc) error {
	path, method, err := parseSwaggerPattern(swaggerPattern)
	if err != nil {
		return err
	}
	pathRule, exists := i.rules[method]
	if !exists {
		pathRule = &PathRule{Exact: map[string]models.RbacFunc{}}
		i.rules[method] = pathRule
	}
	if handler == nil {
		handler = AllowByRoleFunc(roles)
	}

	if isExactPath(path) {
		if _, dup := pathRule.Exact[path]; dup {
			return errors.Errorf("rule already registered (%v)", swaggerPattern)
		}
		pathRule.Exact[path] = handler
	} else {
		pattern, err := pathToRegex(path)
		if err != nil {
			return errors.Wrapf(err, "bad pattern (%v)", swaggerPattern)
		}
		for _, other := range pathRule.Patterns {
			if other.Pattern.String() == pattern.String() {
				return errors.Errorf("rule already registered (%v)", swaggerPattern)
			}
		}
		pathRule.Patterns = append(pathRule.Patterns, PatternRule{Pattern: pattern, Handler: handler})
	}

	// permissions map served to the frontend
	for _, role := range roles {
		if _, ok := i.permissions[role]; !ok {
			i.permissions[role] = map[models.Module][]models.Permission{}
		}
		permissions := i.permissions[role][module]
		if !slices.Contains(permissions, permission) {
			i.permissions[role][module] = append(permissions, permission)
		}
	}
	return nil
}

func (i *impl) GetPermissions(role models.UserRole) map[models.Module][]models.Permission {
	return i.permissions[role]
}

func isExactPath(path string) bool {
	return !strings.Contains(path, "{")
}

var paramRe = regexp.MustCompile(`\\\{([A-Za-z_][A-Za-z0-9_]*)\\\}`)

// pathToRegex turns /requests/{id}/decision into ^/requests/(?P<id>[^/]+)/decision$
func pathToRegex(path string) (*regexp.Regexp, error) {
	pattern := paramRe.ReplaceAllString(regexp.QuoteMeta(path), `(?P<$1>[^/]+)`)
	return regexp.Compile("^" + pattern + "$")
}

func AllowByRoleFunc(accessRoles []models.UserRole) models.RbacFunc {
	allowMap := map[models.UserRole]bool{}
	for _, role := range accessRoles {
		allowMap[role] = true
	}
	return func(userID string, role models.UserRole, params map[string]string) bool {
		return allowMap[role]
	}
}

// NotSelfFunc allows roles unless the param names the caller
func NotSelfFunc(accessRoles []models.UserRole, param string) models.RbacFunc {
	byRole := AllowByRoleFunc(accessRoles)
	return func(userID string, role models.UserRole, params map[string]string) bool {
		return byRole(userID, role, params) && params[param] != userID
	}
}

// parseSwaggerPattern splits "/api/v1/users [post]" into path and method
func parseSwaggerPattern(pattern string) (path string, method HTTPMethod, err error) {
	pattern = strings.TrimSpace(pattern)
	bracketStart := strings.LastIndex(pattern, "[")
	bracketEnd := strings.LastIndex(pattern, "]")
	if bracketStart == -1 || bracketEnd <= bracketStart {
		return "", "", errors.Errorf("Method not provided for pattern (%v)", pattern)
	}
	path = normalizePath(strings.TrimSpace(pattern[:bracketStart]))
	method = HTTPMethod(strings.ToUpper(strings.TrimSpace(pattern[bracketStart+1 : bracketEnd])))
	return path, method, nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
