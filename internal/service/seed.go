package service

import (
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
)

// DemoAccounts returns the identities installed on an empty roster: two
// citizens and one municipal officer.
func DemoAccounts() []SeedAccount {
	return []SeedAccount{
		{
			Identity: domain.Identity{
				ID:         "usr_sol_001",
				Name:       "Rahul Sharma",
				Email:      "rahul@solapur.in",
				Role:       domain.RoleCitizen,
				Reputation: 450,
				Avatar:     "https://i.pravatar.cc/150?u=rahul",
				Followers:  128,
				Following:  45,
			},
			Secret: "password123",
		},
		{
			Identity: domain.Identity{
				ID:         "usr_sol_002",
				Name:       "Priya Mehta",
				Email:      "priya@solapur.in",
				Role:       domain.RoleCitizen,
				Reputation: 1200,
				Avatar:     "https://i.pravatar.cc/150?u=priya",
				Followers:  892,
				Following:  120,
			},
			Secret: "securepass789",
		},
		{
			Identity: domain.Identity{
				ID:         "adm_sol_001",
				Name:       "Inspector Kulkarni",
				Email:      "admin@solapur.gov",
				Role:       domain.RoleAuthority,
				Reputation: 9999,
				Avatar:     "https://i.pravatar.cc/150?u=inspector",
				Followers:  5420,
				Following:  12,
			},
			Secret: "admin_password",
		},
	}
}

// mockIssues returns the demo issue feed, timestamped relative to now.
func mockIssues(now time.Time) []domain.Issue {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	return []domain.Issue{
		{
			ID: "iss_1", ReporterID: "usr_sol_001", ReporterName: "Rahul Sharma",
			Category: domain.CategoryRoad, Department: "ROAD_MAINTENANCE",
			Title:       "Severe Pothole near Siddheshwar Temple",
			Description: "Deep pothole causing traffic slowdowns and vehicle damage near the temple entrance.",
			Status:      domain.StatusOpen,
			Location:    domain.Location{Lat: 17.6715, Lng: 75.9100, Address: "Temple Rd, Solapur"},
			ImageURL:    "https://images.unsplash.com/photo-1515162816999-a0c47dc192f7?auto=format&fit=crop&w=800&q=80",
			Upvotes:     42, Comments: 12, Severity: 8, Priority: 85, TrafficImpact: domain.TrafficHigh,
			CreatedAt: ago(2 * time.Hour),
		},
		{
			ID: "iss_6", ReporterID: "usr_sol_002", ReporterName: "Priya Mehta",
			Category: domain.CategoryRoad, Department: "TOWN_PLANNING",
			Title:       "New Jogging Track at Siddheshwar Lake",
			Description: "The beautification project is finally complete. A great spot for morning walks! #SolapurSmartCity",
			Status:      domain.StatusResolved,
			Location:    domain.Location{Lat: 17.6650, Lng: 75.9040, Address: "Siddheshwar Lake Area"},
			ImageURL:    "https://images.unsplash.com/photo-1496347315686-5f274d018500?auto=format&fit=crop&w=800&q=80",
			Upvotes:     156, Comments: 24, Severity: 1, Priority: 10, TrafficImpact: domain.TrafficLow,
			CreatedAt: ago(3 * time.Hour),
		},
		{
			ID: "iss_2", ReporterID: "usr_sol_002", ReporterName: "Priya Mehta",
			Category: domain.CategoryGarbage, Department: "WASTE_MGMT",
			Title:       "Overflowing Bins in Navi Peth",
			Description: "Commercial waste accumulation on the main market road. Needs immediate clearance.",
			Status:      domain.StatusAssigned,
			Location:    domain.Location{Lat: 17.6780, Lng: 75.9080, Address: "Navi Peth Market"},
			ImageURL:    "https://images.unsplash.com/photo-1605600659908-0ef719419d41?q=80&w=800&auto=format&fit=crop",
			Upvotes:     18, Comments: 5, Severity: 4, Priority: 40, TrafficImpact: domain.TrafficLow,
			CreatedAt: ago(5 * time.Hour),
		},
		{
			ID: "iss_7", ReporterID: "usr_sol_001", ReporterName: "Rahul Sharma",
			Category: domain.CategoryWater, Department: "WATER_DEPT",
			Title:       "Pipeline Burst near Kumbar Ves",
			Description: "Major drinking water leak flooding the street. Thousands of liters being wasted.",
			Status:      domain.StatusOpen,
			Location:    domain.Location{Lat: 17.6620, Lng: 75.9120, Address: "Kumbar Ves, Solapur"},
			ImageURL:    "https://images.unsplash.com/photo-1584463635766-3195204487b3?auto=format&fit=crop&w=800&q=80",
			Upvotes:     89, Comments: 32, Severity: 9, Priority: 95, TrafficImpact: domain.TrafficMedium,
			CreatedAt: ago(8 * time.Hour),
		},
		{
			ID: "iss_3", ReporterID: "usr_sol_001", ReporterName: "Rahul Sharma",
			Category: domain.CategoryLights, Department: "ELECTRICAL",
			Title:            "Streetlight Outage near Solapur Junction",
			Description:      "Dark patches on the station approach road. Safety concern for commuters.",
			Status:           domain.StatusResolved,
			Location:         domain.Location{Lat: 17.6880, Lng: 75.9150, Address: "Station Rd, Solapur"},
			ImageURL:         "https://images.unsplash.com/photo-1618423719018-77292215c2d3?auto=format&fit=crop&w=800&q=80",
			ResolvedImageURL: "https://images.unsplash.com/photo-1563280036-e8a21eb19965?ixlib=rb-4.0.3&auto=format&fit=crop&w=1000&q=80",
			Upvotes:          35, Comments: 8, Severity: 6, Priority: 70, TrafficImpact: domain.TrafficMedium,
			CreatedAt: ago(24 * time.Hour),
		},
		{
			ID: "iss_8", ReporterID: "usr_sol_002", ReporterName: "Priya Mehta",
			Category: domain.CategoryRoad, Department: "TRAFFIC_POLICE",
			Title:       "Traffic Chaos at Saat Rasta Chowk",
			Description: "Traffic signals malfunctioning during peak hours causing heavy congestion.",
			Status:      domain.StatusInProgress,
			Location:    domain.Location{Lat: 17.6580, Lng: 75.9020, Address: "Saat Rasta Chowk"},
			ImageURL:    "https://images.unsplash.com/photo-1617788138017-80ad40651399?auto=format&fit=crop&w=800&q=80",
			Upvotes:     67, Comments: 15, Severity: 7, Priority: 75, TrafficImpact: domain.TrafficHigh,
			CreatedAt: ago(29 * time.Hour),
		},
		{
			ID: "iss_4", ReporterID: "usr_sol_001", ReporterName: "Rahul Sharma",
			Category: domain.CategoryRoad, Department: "ROAD_MAINTENANCE",
			Title:       "Cracked Pavement in Jule Solapur",
			Description: "Surface erosion due to recent heavy rains near the residential complex.",
			Status:      domain.StatusInProgress,
			Location:    domain.Location{Lat: 17.6480, Lng: 75.9220, Address: "Jule Solapur Sector 2"},
			ImageURL:    "https://images.unsplash.com/photo-1519253429384-f25b1275988e?auto=format&fit=crop&w=800&q=80",
			Upvotes:     24, Comments: 6, Severity: 5, Priority: 60, TrafficImpact: domain.TrafficMedium,
			CreatedAt: ago(12 * time.Hour),
		},
		{
			ID: "iss_9", ReporterID: "usr_sol_001", ReporterName: "Rahul Sharma",
			Category: domain.CategoryLights, Department: "ELECTRICAL",
			Title:       "Solar Lights Installed at Bhuikot Fort",
			Description: "The historical fort looks majestic at night with the new eco-friendly lighting.",
			Status:      domain.StatusResolved,
			Location:    domain.Location{Lat: 17.6740, Lng: 75.9070, Address: "Bhuikot Fort"},
			ImageURL:    "https://images.unsplash.com/photo-1594132849880-6c9124b8956e?auto=format&fit=crop&w=800&q=80",
			Upvotes:     210, Comments: 45, Severity: 1, Priority: 5, TrafficImpact: domain.TrafficLow,
			CreatedAt: ago(48 * time.Hour),
		},
		{
			ID: "iss_10", ReporterID: "usr_sol_002", ReporterName: "Priya Mehta",
			Category: domain.CategoryRoad, Department: "ANIMAL_CTRL",
			Title:       "Stray Cattle Hazard on Hotgi Road",
			Description: "Herd of cattle sitting in the middle of the fast lane creating accident risks.",
			Status:      domain.StatusOpen,
			Location:    domain.Location{Lat: 17.6350, Lng: 75.9300, Address: "Hotgi Road"},
			ImageURL:    "https://images.unsplash.com/photo-1558238260-6c58474f63c8?auto=format&fit=crop&w=800&q=80",
			Upvotes:     55, Comments: 18, Severity: 6, Priority: 65, TrafficImpact: domain.TrafficHigh,
			CreatedAt: ago(5 * time.Hour),
		},
	}
}
