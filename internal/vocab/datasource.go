package vocab

import "strings"

// DataSource identifies which upstream asserted a fact, used for read-side
// attribution and filtering.
type DataSource int

const (
	DataSourceUnknown DataSource = iota
	DataSourceSybilList
	DataSourceKeybase
	DataSourceRSS3
	DataSourceFarcaster
	DataSourceLens
	DataSourceTheGraph
	DataSourceNextID
	DataSourceProofService
	DataSourceENS
	DataSourceGitHub
)

var dataSourceNames = map[DataSource]string{
	DataSourceUnknown:      "unknown",
	DataSourceSybilList:    "sybil_list",
	DataSourceKeybase:      "keybase",
	DataSourceRSS3:         "rss3",
	DataSourceFarcaster:    "farcaster",
	DataSourceLens:         "lens",
	DataSourceTheGraph:     "the_graph",
	DataSourceNextID:       "next_id",
	DataSourceProofService: "proof_service",
	DataSourceENS:          "ens",
	DataSourceGitHub:       "github",
}

var dataSourceByName = reverseDataSource(dataSourceNames)

func (d DataSource) String() string {
	if s, ok := dataSourceNames[d]; ok {
		return s
	}
	return "unknown"
}

func ParseDataSource(s string) DataSource {
	if d, ok := dataSourceByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d
	}
	return DataSourceUnknown
}

func AllDataSources() []DataSource {
	out := make([]DataSource, 0, len(dataSourceNames))
	for d := range dataSourceNames {
		if d != DataSourceUnknown {
			out = append(out, d)
		}
	}
	return out
}

// DataSourceSet is a deduplicated, order-independent set of DataSource,
// used as the attribution set returned by neighbors queries.
type DataSourceSet map[DataSource]struct{}

func NewDataSourceSet(sources ...DataSource) DataSourceSet {
	s := make(DataSourceSet, len(sources))
	for _, d := range sources {
		s[d] = struct{}{}
	}
	return s
}

func (s DataSourceSet) Add(d DataSource) {
	s[d] = struct{}{}
}

// Union returns a new set containing every member of s and other.
func (s DataSourceSet) Union(other DataSourceSet) DataSourceSet {
	out := make(DataSourceSet, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

func (s DataSourceSet) Slice() []DataSource {
	out := make([]DataSource, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	return out
}

func reverseDataSource(m map[DataSource]string) map[string]DataSource {
	out := make(map[string]DataSource, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
