package messaging

import (
	"context"
	"strings"

	"github.com/pliu/instamunicipal/internal/models"
)

type ContactTab string

const (
	TabPeople      ContactTab = "people"
	TabDepartments ContactTab = "departments"
)

// SearchContacts lists the contacts of tab whose name or department
// contains query, ignoring case.
func SearchContacts(tab ContactTab, query string) []models.Contact {
	src := PeopleContacts()
	if tab == TabDepartments {
		src = DepartmentContacts()
	}
	q := strings.ToLower(query)
	out := []models.Contact{}
	for _, c := range src {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			(c.Department != "" && strings.Contains(strings.ToLower(c.Department), q)) {
			out = append(out, c)
		}
	}
	return out
}

// FindContact looks a contact up by id across both tabs.
func FindContact(id string) (models.Contact, bool) {
	for _, c := range append(PeopleContacts(), DepartmentContacts()...) {
		if c.ID == id {
			return c, true
		}
	}
	return models.Contact{}, false
}

// UserDirectory finds registered accounts for the people tab.
// store.Store implements it.
type UserDirectory interface {
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ContactFromUser turns a registered account into a contact. deptName maps
// the profile's department id to its display name.
func ContactFromUser(u models.User, deptName func(string) string) models.Contact {
	c := models.Contact{ID: u.ID, Name: u.FullName, Avatar: models.AvatarURL(u.ID)}
	if c.Name == "" {
		c.Name = u.Email
	}
	if u.Department != "" && deptName != nil {
		c.Department = deptName(u.Department)
	}
	return c
}

func person(id, name, seed, dept string) models.Contact {
	return models.Contact{ID: id, Name: name, Avatar: models.AvatarURL(seed), Department: dept}
}

func department(id, name, seed string) models.Contact {
	return models.Contact{ID: id, Name: name, Avatar: models.AvatarURL(seed), IsDepartment: true}
}

func PeopleContacts() []models.Contact {
	return []models.Contact{
		person("user-1", "Jane Cooper", "jane", "Public Works"),
		person("user-2", "Robert Fox", "robert", "Parks & Recreation"),
		person("user-3", "Leslie Knope", "leslie", "City Council"),
		person("user-4", "Ben Wyatt", "ben", "Finance"),
		person("user-5", "April Ludgate", "april", "Parks & Recreation"),
		person("user-6", "Tom Haverford", "tom", "Parks & Recreation"),
		person("user-7", "Ron Swanson", "ron", "Parks & Recreation"),
		person("user-8", "Ann Perkins", "ann", "Health Services"),
	}
}

func DepartmentContacts() []models.Contact {
	return []models.Contact{
		department("dept-1", "Public Works", "public-works"),
		department("dept-2", "Parks & Recreation", "parks-rec"),
		department("dept-3", "Planning & Development", "planning"),
		department("dept-4", "Finance & Budget", "finance"),
		department("dept-5", "Administration", "admin"),
		department("dept-6", "Health Services", "health"),
		department("dept-7", "Education", "education"),
		department("dept-8", "Public Safety", "safety"),
	}
}
