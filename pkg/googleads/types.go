package googleads

// JobStatus is the remote job status reported by the platform.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobRunning JobStatus = "RUNNING"
	JobSuccess JobStatus = "SUCCESS"
	JobFailed  JobStatus = "FAILED"
)

// Terminal reports whether the remote status ends the job.
func (s JobStatus) Terminal() bool {
	return s == JobSuccess || s == JobFailed
}

// AddressInfo is the address identifier wire shape.
type AddressInfo struct {
	HashedFirstName string `json:"hashedFirstName,omitempty"`
	HashedLastName  string `json:"hashedLastName,omitempty"`
	CountryCode     string `json:"countryCode"`
	PostalCode      string `json:"postalCode"`
}

// UserIdentifier is one identity signal in a platform operation. Exactly one
// field is set.
type UserIdentifier struct {
	HashedEmail       string       `json:"hashedEmail,omitempty"`
	HashedPhoneNumber string       `json:"hashedPhoneNumber,omitempty"`
	AddressInfo       *AddressInfo `json:"addressInfo,omitempty"`
}

// UserData is the payload of one create operation.
type UserData struct {
	UserIdentifiers []UserIdentifier `json:"userIdentifiers"`
}

// Operation is one job operation. Only creates are issued by this client.
type Operation struct {
	Create *UserData `json:"create,omitempty"`
}

// Job describes the remote job resource as returned by the status endpoint.
type Job struct {
	ResourceName string    `json:"resourceName"`
	Status       JobStatus `json:"status"`
}

type customerMatchUserListMetadata struct {
	UserList string `json:"userList"`
}

type jobSpec struct {
	Type                          string                        `json:"type"`
	CustomerMatchUserListMetadata customerMatchUserListMetadata `json:"customerMatchUserListMetadata"`
}

type createJobRequest struct {
	Job jobSpec `json:"job"`
}

type createJobResponse struct {
	ResourceName string `json:"resourceName"`
}

type addOperationsRequest struct {
	Operations           []Operation `json:"operations"`
	EnablePartialFailure bool        `json:"enablePartialFailure"`
}

type addOperationsResponse struct {
	PartialFailureError *apiStatus `json:"partialFailureError,omitempty"`
}

// apiStatus is the google.rpc.Status shape carried in error bodies.
type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type errorBody struct {
	Error apiStatus `json:"error"`
}
