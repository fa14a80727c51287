// Package catalog holds the static check item definitions for every
// inspection kind. Everything here is built once at init and never mutated.
package catalog

import "sitecheck-backend/internal/models"

// CheckItemDefinition describes one line of a checklist
type CheckItemDefinition struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	DailyRecheck bool   `json:"daily_recheck,omitempty"`
}

// Group is one category with its items in declaration order
type Group struct {
	Category string                `json:"category"`
	Items    []CheckItemDefinition `json:"items"`
}

type itemList []CheckItemDefinition

// section appends items sharing a category
func (l itemList) section(category string, items ...CheckItemDefinition) itemList {
	for _, it := range items {
		it.Category = category
		l = append(l, it)
	}
	return l
}

func item(id, name string) CheckItemDefinition {
	return CheckItemDefinition{ID: id, Name: name}
}

func critical(id, name string) CheckItemDefinition {
	return CheckItemDefinition{ID: id, Name: name, DailyRecheck: true}
}

var definitions = map[models.InspectionKind]itemList{
	models.KindPlant: itemList{}.
		section("Engine",
			item("engine_oil", "Engine oil level"),
			item("coolant", "Coolant level"),
			item("fuel_leaks", "Fuel system free of leaks"),
			item("air_filter", "Air filter indicator"),
		).
		section("Hydraulics",
			item("hydraulic_oil", "Hydraulic oil level"),
			critical("hydraulic_hoses", "Hoses and fittings"),
			item("rams", "Rams and cylinders"),
		).
		section("Cab & Controls",
			critical("seat_belt", "Seat belt"),
			critical("isolation_lever", "Controls and isolation lever"),
			item("mirrors_cameras", "Mirrors and cameras"),
			item("horn", "Horn"),
			item("beacon", "Warning lights and beacon"),
			item("wipers", "Wipers and washers"),
		).
		section("Safety",
			item("fire_extinguisher", "Fire extinguisher"),
			critical("travel_alarm", "Travel alarm"),
			critical("rci", "Rated capacity indicator"),
		).
		section("Structure",
			item("tracks_tyres", "Tracks / tyres"),
			item("bucket_teeth", "Bucket teeth and pins"),
			item("steps_handrails", "Steps and handrails"),
		),

	models.KindVehicle: itemList{}.
		section("Exterior",
			critical("tyres", "Tyres and wheel nuts"),
			critical("lights", "Lights and indicators"),
			item("windscreen", "Windscreen"),
			item("wipers", "Wipers and washers"),
			item("mirrors", "Mirrors"),
			item("bodywork", "Bodywork"),
		).
		section("Under Bonnet",
			item("engine_oil", "Engine oil level"),
			item("coolant", "Coolant level"),
			item("washer_fluid", "Washer fluid"),
			item("brake_fluid", "Brake fluid"),
		).
		section("Cab",
			critical("seat_belts", "Seat belts"),
			item("horn", "Horn"),
			item("dashboard_warnings", "Dashboard warning lights"),
			critical("brakes", "Brakes"),
		).
		section("Equipment",
			item("first_aid", "First aid kit"),
			item("fire_extinguisher", "Fire extinguisher"),
			item("spill_kit", "Spill kit"),
		),

	models.KindGreasing: itemList{}.
		section("Boom",
			item("boom_foot_pin", "Boom foot pin"),
			item("boom_ram_pins", "Boom ram pins"),
		).
		section("Dipper",
			item("dipper_pivot", "Dipper pivot"),
			item("dipper_ram_pins", "Dipper ram pins"),
		).
		section("Bucket",
			item("bucket_linkage", "Bucket linkage"),
			item("bucket_pins", "Bucket pins"),
		).
		section("Slew",
			item("slew_ring", "Slew ring"),
			item("slew_bearing", "Slew bearing"),
		),

	models.KindQuickHitch: itemList{}.
		section("Hitch",
			critical("front_pin_locked", "Front pin locked"),
			critical("rear_pin_locked", "Rear pin locked"),
			critical("safety_pin", "Safety pin fitted"),
			item("indicator", "Visual indicator shows locked"),
			item("hitch_hoses", "Hitch hoses undamaged"),
		).
		section("Operation",
			critical("tug_test", "Tug test completed"),
			item("operator_trained", "Operator trained on hitch type"),
		),

	models.KindBucketChange: itemList{}.
		section("Before Change",
			item("area_clear", "Area clear of personnel"),
			item("bucket_compatible", "Bucket compatible with hitch"),
		).
		section("Change",
			critical("bucket_seated", "Bucket fully seated"),
			critical("locking_pin", "Locking pin engaged"),
			critical("tug_test", "Tug test completed"),
		).
		section("After Change",
			item("visual_confirmation", "Visual confirmation from cab"),
			item("banksman_confirmation", "Banksman confirmation"),
		),
}

var index = buildIndex()

func buildIndex() map[models.InspectionKind]map[string]CheckItemDefinition {
	idx := make(map[models.InspectionKind]map[string]CheckItemDefinition, len(definitions))
	for kind, items := range definitions {
		byID := make(map[string]CheckItemDefinition, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		idx[kind] = byID
	}
	return idx
}

// Items returns the kind's definitions in catalog order. Unknown kinds yield nil.
func Items(kind models.InspectionKind) []CheckItemDefinition {
	items := definitions[kind]
	if items == nil {
		return nil
	}
	return append([]CheckItemDefinition(nil), items...)
}

// Groups returns the kind's items grouped by category in first-appearance order
func Groups(kind models.InspectionKind) []Group {
	var groups []Group
	pos := map[string]int{}
	for _, it := range definitions[kind] {
		i, ok := pos[it.Category]
		if !ok {
			i = len(groups)
			pos[it.Category] = i
			groups = append(groups, Group{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// Lookup finds one definition by id
func Lookup(kind models.InspectionKind, itemID string) (CheckItemDefinition, bool) {
	it, ok := index[kind][itemID]
	return it, ok
}
