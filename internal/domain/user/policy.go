package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Policy derives a portal profile from an institutional email address when a
// first-time login has no stored profile. Student addresses follow the
// roll-number convention (e.g. 21bce042@<student-domain>); staff addresses
// use name-based local parts at the staff domain.
type Policy struct {
	studentDomain string
	staffDomain   string
	adminEmails   map[string]struct{}
}

var rollPattern = regexp.MustCompile(`^(\d{2})([a-z]+)(\d{3})$`)

var departmentCodes = map[string]string{
	"ce":  "Computer Engineering",
	"bce": "Computer Engineering",
	"it":  "Information Technology",
	"bit": "Information Technology",
	"ec":  "Electronics & Communication",
	"bec": "Electronics & Communication",
	"me":  "Mechanical Engineering",
	"bme": "Mechanical Engineering",
	"cl":  "Civil Engineering",
	"bcl": "Civil Engineering",
	"ee":  "Electrical Engineering",
	"bee": "Electrical Engineering",
}

// NewPolicy builds a provisioning policy. adminEmails are exact addresses
// granted the admin role regardless of domain.
func NewPolicy(studentDomain, staffDomain string, adminEmails []string) *Policy {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Policy{
		studentDomain: strings.ToLower(studentDomain),
		staffDomain:   strings.ToLower(staffDomain),
		adminEmails:   admins,
	}
}

// Provision builds a new active Principal for a first-time login. displayName
// may be empty; a name is then derived from the address. An address outside
// the configured domains cannot be provisioned and returns an error.
func (p *Policy) Provision(subjectID, email, displayName string) (*Principal, error) {
	addr := strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := splitAddress(addr)
	if !ok {
		return nil, fmt.Errorf("malformed email address %q", email)
	}

	now := time.Now().UTC()
	principal := &Principal{
		ID:          subjectID,
		Email:       addr,
		Name:        displayName,
		IsActive:    true,
		CreatedAt:   now,
		LastLoginAt: now,
	}

	if _, isAdmin := p.adminEmails[addr]; isAdmin {
		principal.Role = RoleAdmin
		principal.EmployeeID = strings.ToUpper(local)
		if principal.Name == "" {
			principal.Name = nameFromLocal(local)
		}
		return principal, nil
	}

	switch domain {
	case p.studentDomain:
		m := rollPattern.FindStringSubmatch(local)
		if m == nil {
			return nil, fmt.Errorf("address %q does not match the roll-number convention", email)
		}
		principal.Role = RoleStudent
		principal.RollNumber = strings.ToUpper(local)
		if dept, found := departmentCodes[m[2]]; found {
			principal.Department = dept
		} else {
			principal.Department = "General"
		}
		if principal.Name == "" {
			principal.Name = principal.RollNumber
		}
	case p.staffDomain:
		if strings.Contains(local, "placement") {
			principal.Role = RolePlacementOfficer
		} else {
			principal.Role = RoleTeacher
		}
		principal.EmployeeID = strings.ToUpper(strings.ReplaceAll(local, ".", ""))
		if principal.Name == "" {
			principal.Name = nameFromLocal(local)
		}
	default:
		return nil, fmt.Errorf("address %q is outside the institute domains", email)
	}

	return principal, nil
}

func splitAddress(addr string) (local, domain string, ok bool) {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "", "", false
	}
	return addr[:at], addr[at+1:], true
}

// nameFromLocal turns "jigar.patel" into "Jigar Patel".
func nameFromLocal(local string) string {
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
