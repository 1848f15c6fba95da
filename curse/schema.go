package curse

// Subset of the CurseForge v1 API schema that the client reads. Fields the
// core never touches are omitted.

type searchModsResponse struct {
	Data       []apiMod   `json:"data"`
	Pagination pagination `json:"pagination"`
}

type getModResponse struct {
	Data apiMod `json:"data"`
}

type getModFilesResponse struct {
	Data       []apiFile  `json:"data"`
	Pagination pagination `json:"pagination"`
}

type getDownloadURLResponse struct {
	Data string `json:"data"`
}

type pagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

type apiMod struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Summary       string    `json:"summary"`
	DownloadCount int64     `json:"downloadCount"`
	MainFileID    int       `json:"mainFileId"`
	LatestFiles   []apiFile `json:"latestFiles"`
}

type apiFile struct {
	ID           int             `json:"id"`
	ModID        int             `json:"modId"`
	IsAvailable  bool            `json:"isAvailable"`
	DisplayName  string          `json:"displayName"`
	FileName     string          `json:"fileName"`
	Hashes       []apiFileHash   `json:"hashes"`
	FileDate     string          `json:"fileDate"`
	FileLength   int64           `json:"fileLength"`
	DownloadURL  string          `json:"downloadUrl"`
	GameVersions []string        `json:"gameVersions"`
	Dependencies []apiDependency `json:"dependencies"`
}

type apiFileHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

const (
	hashAlgoSha1 = 1
	hashAlgoMD5  = 2
)

type apiDependency struct {
	ModID        int `json:"modId"`
	RelationType int `json:"relationType"`
}

// Relation type constants from the CurseForge API.
const (
	relationEmbeddedLibrary    = 1
	relationOptionalDependency = 2
	relationRequiredDependency = 3
	relationTool               = 4
	relationIncompatible       = 5
	relationInclude            = 6
)

// Mod loader type constants from the CurseForge API.
const (
	loaderTypeForge    = 1
	loaderTypeFabric   = 4
	loaderTypeQuilt    = 5
	loaderTypeNeoForge = 6
)
