// Package migrate holds the relational schema shared by the SQLite and
// PostgreSQL backends, in the table form ent's migration engine consumes.
package migrate

import (
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// CountiesColumns holds the columns for the "counties" table.
	CountiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "name", Type: field.TypeString},
		{Name: "state", Type: field.TypeString, Size: 2},
		{Name: "fips_code", Type: field.TypeString, Nullable: true},
		{Name: "clerk_website", Type: field.TypeString, Nullable: true},
	}
	// CountiesTable holds the schema information for the "counties" table.
	CountiesTable = &schema.Table{
		Name:       "counties",
		Columns:    CountiesColumns,
		PrimaryKey: []*schema.Column{CountiesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "county_name_state", Unique: true, Columns: []*schema.Column{CountiesColumns[1], CountiesColumns[2]}},
		},
	}

	ElectionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "election_date", Type: field.TypeString, Size: 10},
		{Name: "election_type", Type: field.TypeString},
		{Name: "election_name", Type: field.TypeString},
		{Name: "total_registered_voters", Type: field.TypeInt, Nullable: true},
		{Name: "total_ballots_cast", Type: field.TypeInt, Nullable: true},
		{Name: "source_file", Type: field.TypeString, Nullable: true},
		{Name: "county_id", Type: field.TypeInt},
	}
	ElectionsTable = &schema.Table{
		Name:       "elections",
		Columns:    ElectionsColumns,
		PrimaryKey: []*schema.Column{ElectionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "elections_counties_elections",
				Columns:    []*schema.Column{ElectionsColumns[7]},
				RefColumns: []*schema.Column{CountiesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "election_county_date_type", Unique: true, Columns: []*schema.Column{ElectionsColumns[7], ElectionsColumns[1], ElectionsColumns[2]}},
			{Name: "election_date", Unique: false, Columns: []*schema.Column{ElectionsColumns[1]}},
		},
	}

	PrecinctsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "precinct_name", Type: field.TypeString},
		{Name: "precinct_code", Type: field.TypeString, Nullable: true},
		{Name: "township", Type: field.TypeString, Nullable: true},
		{Name: "county_id", Type: field.TypeInt},
	}
	PrecinctsTable = &schema.Table{
		Name:       "precincts",
		Columns:    PrecinctsColumns,
		PrimaryKey: []*schema.Column{PrecinctsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "precincts_counties_precincts",
				Columns:    []*schema.Column{PrecinctsColumns[4]},
				RefColumns: []*schema.Column{CountiesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "precinct_county_name", Unique: true, Columns: []*schema.Column{PrecinctsColumns[4], PrecinctsColumns[1]}},
		},
	}

	RacesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "race_name", Type: field.TypeString},
		{Name: "race_level", Type: field.TypeString, Default: "other"},
		{Name: "race_type", Type: field.TypeString, Nullable: true},
		{Name: "vote_for", Type: field.TypeInt, Default: 1},
		{Name: "total_votes", Type: field.TypeInt, Nullable: true},
		{Name: "election_id", Type: field.TypeInt},
	}
	RacesTable = &schema.Table{
		Name:       "races",
		Columns:    RacesColumns,
		PrimaryKey: []*schema.Column{RacesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "races_elections_races",
				Columns:    []*schema.Column{RacesColumns[6]},
				RefColumns: []*schema.Column{ElectionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "race_election_name", Unique: true, Columns: []*schema.Column{RacesColumns[6], RacesColumns[1]}},
			{Name: "race_level", Unique: false, Columns: []*schema.Column{RacesColumns[2]}},
		},
	}

	CandidatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "name", Type: field.TypeString},
		{Name: "party", Type: field.TypeString, Nullable: true},
		{Name: "party_key", Type: field.TypeString, Default: ""},
		{Name: "incumbent", Type: field.TypeBool, Default: false},
	}
	CandidatesTable = &schema.Table{
		Name:       "candidates",
		Columns:    CandidatesColumns,
		PrimaryKey: []*schema.Column{CandidatesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "candidate_name_party_key", Unique: true, Columns: []*schema.Column{CandidatesColumns[1], CandidatesColumns[3]}},
		},
	}

	ResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "votes", Type: field.TypeInt},
		{Name: "vote_percentage", Type: field.TypeFloat64, Nullable: true},
		{Name: "channel1_votes", Type: field.TypeInt, Nullable: true},
		{Name: "channel2_votes", Type: field.TypeInt, Nullable: true},
		{Name: "channel3_votes", Type: field.TypeInt, Nullable: true},
		{Name: "race_id", Type: field.TypeInt},
		{Name: "candidate_id", Type: field.TypeInt},
		{Name: "precinct_id", Type: field.TypeInt, Nullable: true},
	}
	ResultsTable = &schema.Table{
		Name:       "results",
		Columns:    ResultsColumns,
		PrimaryKey: []*schema.Column{ResultsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "results_races_results",
				Columns:    []*schema.Column{ResultsColumns[6]},
				RefColumns: []*schema.Column{RacesColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "results_candidates_results",
				Columns:    []*schema.Column{ResultsColumns[7]},
				RefColumns: []*schema.Column{CandidatesColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "results_precincts_results",
				Columns:    []*schema.Column{ResultsColumns[8]},
				RefColumns: []*schema.Column{PrecinctsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "result_race_id", Unique: false, Columns: []*schema.Column{ResultsColumns[6]}},
			{Name: "result_precinct_id", Unique: false, Columns: []*schema.Column{ResultsColumns[8]}},
		},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{"results_votes_nonnegative": "votes >= 0"},
		},
	}

	TurnoutColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "registered_voters", Type: field.TypeInt, Nullable: true},
		{Name: "ballots_cast", Type: field.TypeInt, Nullable: true},
		{Name: "turnout_percentage", Type: field.TypeFloat64, Nullable: true},
		{Name: "election_id", Type: field.TypeInt},
		{Name: "precinct_id", Type: field.TypeInt, Nullable: true},
	}
	TurnoutTable = &schema.Table{
		Name:       "turnout",
		Columns:    TurnoutColumns,
		PrimaryKey: []*schema.Column{TurnoutColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "turnout_elections_turnout",
				Columns:    []*schema.Column{TurnoutColumns[4]},
				RefColumns: []*schema.Column{ElectionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "turnout_precincts_turnout",
				Columns:    []*schema.Column{TurnoutColumns[5]},
				RefColumns: []*schema.Column{PrecinctsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "turnout_election_id", Unique: false, Columns: []*schema.Column{TurnoutColumns[4]}},
			{Name: "turnout_election_precinct", Unique: true, Columns: []*schema.Column{TurnoutColumns[4], TurnoutColumns[5]}},
		},
	}

	DataQualityColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "confidence_level", Type: field.TypeString},
		{Name: "confidence_score", Type: field.TypeFloat64},
		{Name: "source_type", Type: field.TypeString},
		{Name: "race_names_clean", Type: field.TypeBool, Default: false},
		{Name: "turnout_consistent", Type: field.TypeBool, Default: false},
		{Name: "precinct_count_match", Type: field.TypeBool, Default: false},
		{Name: "cross_validated", Type: field.TypeBool, Default: false},
		{Name: "pdf_parsed_ok", Type: field.TypeBool, Default: false},
		{Name: "notes", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "assessed_at", Type: field.TypeTime},
		{Name: "election_id", Type: field.TypeInt, Unique: true},
	}
	DataQualityTable = &schema.Table{
		Name:       "data_quality",
		Columns:    DataQualityColumns,
		PrimaryKey: []*schema.Column{DataQualityColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "data_quality_elections_data_quality",
				Columns:    []*schema.Column{DataQualityColumns[11]},
				RefColumns: []*schema.Column{ElectionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{"data_quality_score_range": "confidence_score >= 0 AND confidence_score <= 1"},
		},
	}

	ImportLogColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "filename", Type: field.TypeString},
		{Name: "file_type", Type: field.TypeString},
		{Name: "records_imported", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeString},
		{Name: "notes", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "batch_id", Type: field.TypeString, Nullable: true},
		{Name: "content_hash", Type: field.TypeString, Nullable: true, Size: 64},
		{Name: "imported_at", Type: field.TypeTime},
	}
	ImportLogTable = &schema.Table{
		Name:       "import_log",
		Columns:    ImportLogColumns,
		PrimaryKey: []*schema.Column{ImportLogColumns[0]},
		Indexes: []*schema.Index{
			{Name: "import_log_filename", Unique: false, Columns: []*schema.Column{ImportLogColumns[1]}},
		},
	}

	// Tables holds all the tables in the schema, parents before children.
	Tables = []*schema.Table{
		CountiesTable,
		ElectionsTable,
		PrecinctsTable,
		RacesTable,
		CandidatesTable,
		ResultsTable,
		TurnoutTable,
		DataQualityTable,
		ImportLogTable,
	}
)

func init() {
	ElectionsTable.ForeignKeys[0].RefTable = CountiesTable
	PrecinctsTable.ForeignKeys[0].RefTable = CountiesTable
	RacesTable.ForeignKeys[0].RefTable = ElectionsTable
	ResultsTable.ForeignKeys[0].RefTable = RacesTable
	ResultsTable.ForeignKeys[1].RefTable = CandidatesTable
	ResultsTable.ForeignKeys[2].RefTable = PrecinctsTable
	TurnoutTable.ForeignKeys[0].RefTable = ElectionsTable
	TurnoutTable.ForeignKeys[1].RefTable = PrecinctsTable
	DataQualityTable.ForeignKeys[0].RefTable = ElectionsTable
}
