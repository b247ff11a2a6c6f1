package model

// Student represents a registered student as stored in the `students`
// table.  Email is unique and stored lower-cased.  PasswordHash holds a
// bcrypt digest of the student's credential and is never serialized.
//
// Fields:
//  ID           – primary key identifier.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique, normalized email address.
//  PasswordHash – bcrypt hash of the credential.
//  Phone        – optional contact phone.
//  Address      – optional postal address.
type Student struct {
	ID           uint64 `json:"id"`         // students.id
	FirstName    string `json:"first_name"` // students.first_name
	LastName     string `json:"last_name"`  // students.last_name
	Email        string `json:"email"`      // students.email
	PasswordHash string `json:"-"`          // students.password_hash
	Phone        string `json:"phone"`      // students.phone
	Address      string `json:"address"`    // students.address
}

// FullName joins first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
