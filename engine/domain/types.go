// Package domain defines the politician record model, the error taxonomy,
// and query validation for the retrieval pipeline. Field names and JSON tags
// follow the upstream politician API payloads verbatim, since the same JSON
// is stored in the vector store and handed to the language model.
package domain

// Gender values as delivered by the upstream API.
const (
	GenderMan   = "MAN"
	GenderWoman = "WOMAN"
)

// Elector role tags. A single elector entry can carry several at once.
const (
	ElectorPreliminaryCandidate = "PRELIMINARY_CANDIDATE"
	ElectorCandidate            = "CANDIDATE"
	ElectorWinner               = "ELECTION_WINNER"
)

// Election main types.
const (
	ElectionCongress  = "CONGRESS_MAN"
	ElectionPresident = "PRESIDENT"
	// ElectionCombined marks rounds where congress and presidential
	// elections were held together.
	ElectionCombined = "CONGRESS_PRESIDENT_MAN"
)

// Politician is the full upstream record. The detail collection stores it
// unmodified; the basic collection stores the lean Core derived from it.
type Politician struct {
	ID             int64     `json:"politicianId"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender"`
	BirthDate      string    `json:"birthDate"`
	Address        string    `json:"address"`
	Job            []string  `json:"job"`
	Career         []string  `json:"career"`
	Education      []string  `json:"education"`
	CriminalRecord int       `json:"criminalRecord"`
	Party          *Party    `json:"politicalParty,omitempty"`
	Electors       []Elector `json:"electors,omitempty"`
}

// Party is a political party. It is embedded both on the Politician and on
// each Elector entry: affiliation can change between elections, so it is
// deliberately not normalized away.
type Party struct {
	ID                 int64  `json:"politicalPartyId"`
	Name               string `json:"name"`
	CountMembers       int    `json:"countMembers"`
	FoundYear          string `json:"foundYear"`
	RepresentativeName string `json:"representativeName"`
	PersonalColor      string `json:"personalColor"`
}

// Elector is one election-candidacy record belonging to a politician.
type Elector struct {
	ID                      int64        `json:"electorId"`
	ElectionType            ElectionType `json:"electionType"`
	ElectorTypes            []string     `json:"electorTypes"`
	Party                   *Party       `json:"politicalParty,omitempty"`
	District                *District    `json:"zoneElectionDistrict,omitempty"`
	InformationURL          string       `json:"informationUrl,omitempty"`
	PreliminaryRegisteredAt string       `json:"preliminaryRegisteredDate,omitempty"`
	BallotNumber            int          `json:"electionNum"`
	Winner                  bool         `json:"winner"`
	VoteCount               int64        `json:"voteCount"`
	VotePercentage          float64      `json:"votePercentage"`
}

// ElectionType identifies the election an elector entry belongs to.
type ElectionType struct {
	ID           int64  `json:"electionTypeId"`
	MainType     string `json:"electionMainType"`
	SubType      string `json:"electionSubType"`
	ElectionDate string `json:"electionDate"`
	Round        int    `json:"round"`
}

// District is the election district the candidacy ran in, with the vote
// tallies counted district-wide.
type District struct {
	ID                 int64  `json:"zoneElectionDistrictId"`
	City               City   `json:"zoneCity"`
	Name               string `json:"name"`
	PeopleCount        int64  `json:"peopleCount"`
	TotalVoteCount     int64  `json:"totalVoteCount"`
	RealVoteCount      int64  `json:"realVoteCount"`
	IgnoredVoteCount   int64  `json:"ignoredVoteCount"`
	AbandonedVoteCount int64  `json:"abandonedVoteCount"`
}

// City is the city a district belongs to.
type City struct {
	ID   int64  `json:"zoneCityId"`
	Name string `json:"name"`
}
