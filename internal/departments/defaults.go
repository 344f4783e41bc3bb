package departments

import "github.com/pliu/instamunicipal/internal/models"

// Defaults returns a fresh copy of the seeded departments.
func Defaults() []models.Department {
	return []models.Department{
		{
			ID:             "public-works",
			Name:           "Public Works",
			Description:    "Responsible for maintaining public infrastructure including roads, bridges, and municipal buildings.",
			MemberCount:    42,
			RecentActivity: models.Activity{Time: "2 hours ago", Count: 5},
			IsActive:       true,
			UnreadCount:    3,
		},
		{
			ID:             "parks-rec",
			Name:           "Parks & Recreation",
			Description:    "Manages and maintains public parks, recreational facilities, and community programs for residents.",
			MemberCount:    28,
			RecentActivity: models.Activity{Time: "30 minutes ago", Count: 12},
			IsActive:       true,
			UnreadCount:    8,
		},
		{
			ID:             "planning",
			Name:           "Planning & Development",
			Description:    "Oversees urban planning, zoning regulations, and building permits for sustainable city growth.",
			MemberCount:    19,
			RecentActivity: models.Activity{Time: "1 day ago", Count: 3},
			IsActive:       true,
		},
		{
			ID:             "finance",
			Name:           "Finance & Budget",
			Description:    "Manages municipal finances, budget planning, tax collection, and financial reporting.",
			MemberCount:    15,
			RecentActivity: models.Activity{Time: "4 hours ago", Count: 7},
			IsActive:       true,
			UnreadCount:    2,
		},
		{
			ID:             "admin",
			Name:           "Administration",
			Description:    "Coordinates interdepartmental activities, manages human resources, and implements city policies.",
			MemberCount:    23,
			RecentActivity: models.Activity{Time: "3 hours ago", Count: 9},
			IsActive:       true,
		},
		{
			ID:             "health",
			Name:           "Health Services",
			Description:    "Provides public health programs, inspections, and community health initiatives.",
			MemberCount:    31,
			RecentActivity: models.Activity{Time: "5 hours ago", Count: 4},
			IsActive:       false,
		},
		{
			ID:             "education",
			Name:           "Education",
			Description:    "Oversees public schools, educational programs, and learning resources for the community.",
			MemberCount:    47,
			RecentActivity: models.Activity{Time: "1 hour ago", Count: 15},
			IsActive:       true,
			UnreadCount:    5,
		},
		{
			ID:             "safety",
			Name:           "Public Safety",
			Description:    "Coordinates emergency services, disaster preparedness, and community safety programs.",
			MemberCount:    38,
			RecentActivity: models.Activity{Time: "45 minutes ago", Count: 8},
			IsActive:       true,
			UnreadCount:    1,
		},
	}
}
