package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func startMongoDockerContainer(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Fatalf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("mongo", "6.0", nil)
	if err != nil {
		t.Fatalf("Failed to start mongo: %+v", err)
	}

	// build uri the container is listening on
	uri := "mongodb://" + net.JoinHostPort("localhost", resource.GetPort("27017/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, e := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if e != nil {
			return e
		}
		defer client.Disconnect(ctx)
		return client.Ping(ctx, readpref.Primary())
	})

	if err != nil {
		t.Fatalf("Failed to ping Mongo: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return uri, destroyFunc
}

func TestMongoStore(t *testing.T) {
	uri, destroyFunc := startMongoDockerContainer(t)
	defer destroyFunc()

	testConfig := &Config{
		Mongo: MongoConfig{
			URI:            uri,
			Database:       "studentdb_test",
			ConnectTimeout: 10 * time.Second,
			PingTimeout:    5 * time.Second,
		},
	}
	client, err := GetMongoClient(testConfig)
	require.NoError(t, err, "failed to connect to the test mongo container")
	defer client.Disconnect(context.Background())

	db := client.Database(testConfig.Mongo.Database)
	students := NewMongoStudentStorage(zap.NewNop(), db)
	books := NewMongoBookStorage(zap.NewNop(), db)
	ctx := context.Background()

	batch := SampleStudents()
	for i := range batch {
		batch[i].ID = primitive.NewObjectID()
		batch[i].Status = StatusEnrolled
		batch[i].EnrollmentDate = time.Now().UTC().Truncate(time.Millisecond)
	}

	t.Run("Insert Students Batch", func(t *testing.T) {
		// ensures we can insert several student records at once.
		inserted, err := students.InsertMany(ctx, batch)
		assert.NoError(t, err)
		assert.Len(t, inserted, len(batch))
	})

	t.Run("Get Existent Student", func(t *testing.T) {
		// ensures we can fetch a specific student record.
		student, err := students.GetOne(ctx, batch[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, batch[0].Name, student.Name)
	})

	t.Run("Get NonExistent Student", func(t *testing.T) {
		// ensures fetching a non-existent student fails.
		_, err := students.GetOne(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("Find With Operators", func(t *testing.T) {
		lo, hi := 21, 25
		aged, err := students.Find(ctx, StudentFilter{Age: IntRange{Min: &lo, Max: &hi}})
		assert.NoError(t, err)
		assert.Len(t, aged, 2)

		cs, err := students.Find(ctx, StudentFilter{Courses: []string{"Mathematics", "Physics"}})
		assert.NoError(t, err)
		assert.Len(t, cs, 2)

		hasEmail := false
		without, err := students.Find(ctx, StudentFilter{HasEmail: &hasEmail})
		assert.NoError(t, err)
		assert.Len(t, without, 2)

		none, err := students.Find(ctx, StudentFilter{Course: "Chemistry"})
		assert.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Update Student", func(t *testing.T) {
		// ensures the patched document comes back, not the stale one.
		age := 21
		student, err := students.Update(ctx, batch[0].ID, StudentPatch{Age: &age})
		assert.NoError(t, err)
		assert.Equal(t, 21, student.Age)

		_, err = students.Update(ctx, primitive.NewObjectID(), StudentPatch{Age: &age})
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("Bulk Update Students", func(t *testing.T) {
		status := StatusDropped
		modified, err := students.UpdateMany(ctx, StudentFilter{Course: "Computer Science"}, StudentPatch{Status: &status})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), modified)

		modified, err = students.UpdateMany(ctx, StudentFilter{Course: "Chemistry"}, StudentPatch{Status: &status})
		assert.NoError(t, err)
		assert.Equal(t, int64(0), modified)
	})

	t.Run("Borrow And Return Workflow", func(t *testing.T) {
		bookID := primitive.NewObjectID()
		_, err := books.Insert(ctx, Book{ID: bookID, Title: "The Go Programming Language", Author: "Donovan & Kernighan", Category: "Programming", Available: true})
		require.NoError(t, err)

		at := time.Now().UTC().Truncate(time.Millisecond)
		due := at.Add(14 * 24 * time.Hour)

		book, err := books.Borrow(ctx, bookID, batch[0].ID, at, due)
		assert.NoError(t, err)
		assert.False(t, book.Available)
		require.NotNil(t, book.BorrowedBy)
		assert.Equal(t, batch[0].ID, *book.BorrowedBy)

		// second borrower loses the check-and-set.
		_, err = books.Borrow(ctx, bookID, batch[1].ID, at, due)
		assert.ErrorIs(t, err, ErrBookNotAvailable)

		// unknown book keeps its own error.
		_, err = books.Borrow(ctx, primitive.NewObjectID(), batch[0].ID, at, due)
		assert.ErrorIs(t, err, ErrBookNotFound)

		// the lookup stage resolves the borrower.
		detail, err := books.GetDetail(ctx, bookID)
		assert.NoError(t, err)
		require.NotNil(t, detail.Borrower)
		assert.Equal(t, batch[0].Name, detail.Borrower.Name)

		available, err := books.CountAvailable(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), available)

		book, err = books.Return(ctx, bookID)
		assert.NoError(t, err)
		assert.True(t, book.Available)
		assert.Nil(t, book.BorrowedBy)
		assert.Nil(t, book.BorrowDate)
		assert.Nil(t, book.DueDate)
	})

	t.Run("Delete Students", func(t *testing.T) {
		deleted, err := students.Delete(ctx, primitive.NewObjectID())
		assert.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		deleted, err = students.Delete(ctx, batch[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = students.DeleteMany(ctx, StudentFilter{Course: "Computer Science"})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		deleted, err = students.DeleteAll(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		n, err := students.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}
