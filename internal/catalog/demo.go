package catalog

// DemoSeed returns the three-installation demonstration catalog.
func DemoSeed() *Seed {
	return &Seed{
		Installations: []InstallationSeed{
			{ID: "INS-001", Name: "North Blending Plant", Latitude: 6.2518, Longitude: -75.5636, Risk: "HIGH", Maturity: 58},
			{ID: "INS-002", Name: "South Storage Terminal", Latitude: 4.7110, Longitude: -74.0721, Risk: "MEDIUM", Maturity: 72},
			{ID: "INS-003", Name: "East Reactor Plant", Latitude: 7.1193, Longitude: -73.1227, Risk: "HIGH", Maturity: 63},
		},
		Nodes: []NodeSeed{
			{
				ID:           "N-001",
				Kind:         "Process node",
				Installation: "North Blending Plant",
				Unit:         "Reactor 1",
				Equipment:    "R-101",
				Description:  "Flammable solvent leak in the loading area and possible overpressure in R-101.",
				Risk:         "HIGH",
				Pillar:       "Manage risk",
				Related:      "D-001 | A-003 | Req-3687-9",
			},
			{
				ID:           "N-002",
				Kind:         "Process node",
				Installation: "South Storage Terminal",
				Unit:         "Tank farm",
				Equipment:    "TK-201-ESF",
				Description:  "Tank overfill during receipt and possible flammable spill.",
				Risk:         "HIGH",
				Pillar:       "Manage risk",
				Related:      "D-011 | A-010",
			},
			{
				ID:           "N-003",
				Kind:         "Process node",
				Installation: "East Reactor Plant",
				Unit:         "Reactor 2",
				Equipment:    "R-202",
				Description:  "Runaway reaction with rising pressure and temperature.",
				Risk:         "HIGH",
				Pillar:       "Manage risk",
				Related:      "D-020 | D-021",
			},
		},
		Studies: []StudySeed{
			{
				ID: "E-001", Type: "HAZOP", Year: 2019,
				Installation: "North Blending Plant", Unit: "Reactor 1", Equipment: "R-101",
				Coverage: "HIGH", Status: "CURRENT",
				SuggestedAction: "Revalidate focusing on overpressure scenarios.",
				Comment:         "Detailed HAZOP for normal operation and start-up.",
			},
			{
				ID: "E-002", Type: "LOPA", Year: 2020,
				Installation: "North Blending Plant", Unit: "Reactor 1", Equipment: "R-101",
				Coverage: "MEDIUM", Status: "CURRENT",
				SuggestedAction: "Review frequency assumptions and PSV failures.",
				Comment:         "LOPA for overpressure and SIS failure scenarios.",
			},
			{
				ID: "E-003", Type: "WHAT-IF", Year: 2017,
				Installation: "South Storage Terminal", Unit: "Tank farm", Equipment: "TK-201-ESF",
				Coverage: "LOW", Status: "OBSOLETE",
				SuggestedAction: "Do not repeat in full; document previous decisions.",
				Comment:         "What-if for the initial terminal start-up.",
			},
			{
				ID: "E-004", Type: "QRA", Year: 2021,
				Installation: "East Reactor Plant", Unit: "Reactor complex", Equipment: "",
				Coverage: "HIGH", Status: "CURRENT",
				SuggestedAction: "Use as the basis for land-use planning and the emergency plan.",
				Comment:         "Quantitative risk analysis for the whole plant.",
			},
		},
	}
}
