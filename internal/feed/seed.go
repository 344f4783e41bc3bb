package feed

import (
	"time"

	"github.com/pliu/instamunicipal/internal/models"
)

// SamplePosts returns the demo posts, dated relative to now.
func SamplePosts(now time.Time) []models.Post {
	return []models.Post{
		{
			ID:        "post-1",
			Content:   "We're excited to announce that the Main Street renovation project will begin next week. Expect some traffic delays in the downtown area.",
			CreatedAt: now.Add(-30 * time.Minute),
			Author: models.Author{
				ID:     "dept-1",
				Name:   "Public Works Department",
				Avatar: models.AvatarURL("public-works"),
			},
			Department: &models.DepartmentRef{ID: "public-works", Name: "Public Works"},
			Visibility: models.VisibilityPublic,
			Images:     []string{"https://images.unsplash.com/photo-1544984243-ec57ea16fe25?w=500&q=80"},
			Location:   "Main Street, Downtown",
			Likes:      24,
			Comments:   8,
		},
		{
			ID:        "post-2",
			Content:   "Has anyone noticed the potholes on Elm Street? They're getting worse after the recent rain.",
			CreatedAt: now.Add(-2 * time.Hour),
			Author: models.Author{
				ID:         "user-1",
				Name:       "Jane Cooper",
				Avatar:     models.AvatarURL("jane"),
				Department: "Public Works",
			},
			Visibility: models.VisibilityPublic,
			Location:   "Elm Street",
			Likes:      15,
			Comments:   12,
			IsLiked:    true,
		},
		{
			ID:           "post-3",
			Content:      "I've noticed some suspicious activity near the park after hours. Can we get more patrols in that area?",
			CreatedAt:    now.Add(-5 * time.Hour),
			Author:       models.AnonymousAuthor(),
			Department:   &models.DepartmentRef{ID: "safety", Name: "Public Safety"},
			Visibility:   models.VisibilityAnonymous,
			Likes:        8,
			Comments:     3,
			IsBookmarked: true,
		},
		{
			ID:        "post-4",
			Content:   "Registration for summer youth programs is now open! Sign up your kids for swimming, basketball, arts & crafts, and more.",
			CreatedAt: now.Add(-24 * time.Hour),
			Author: models.Author{
				ID:     "dept-2",
				Name:   "Parks & Recreation",
				Avatar: models.AvatarURL("parks-rec"),
			},
			Department: &models.DepartmentRef{ID: "parks-rec", Name: "Parks & Recreation"},
			Visibility: models.VisibilityPublic,
			Images: []string{
				"https://images.unsplash.com/photo-1472162072942-cd5147eb3902?w=500&q=80",
				"https://images.unsplash.com/photo-1551966775-a4ddc8df052b?w=500&q=80",
			},
			Likes:    42,
			Comments: 15,
		},
	}
}

// Stories returns the department stories bar.
func Stories() []models.Story {
	return []models.Story{
		{DepartmentID: "parks", Name: "Parks & Rec", ImageURL: models.AvatarURL("parks"), IsActive: true},
		{DepartmentID: "finance", Name: "Finance", ImageURL: models.AvatarURL("finance")},
		{DepartmentID: "police", Name: "Police Dept", ImageURL: models.AvatarURL("police"), IsActive: true},
		{DepartmentID: "fire", Name: "Fire Dept", ImageURL: models.AvatarURL("fire")},
		{DepartmentID: "health", Name: "Health Services", ImageURL: models.AvatarURL("health")},
		{DepartmentID: "planning", Name: "Urban Planning", ImageURL: models.AvatarURL("planning")},
		{DepartmentID: "transport", Name: "Transportation", ImageURL: models.AvatarURL("transport")},
		{DepartmentID: "water", Name: "Water & Utilities", ImageURL: models.AvatarURL("water")},
		{DepartmentID: "mayor", Name: "Mayor's Office", ImageURL: models.AvatarURL("mayor"), IsActive: true},
		{DepartmentID: "it", Name: "IT Department", ImageURL: models.AvatarURL("it")},
	}
}
