package ddd

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zhenyu888/event-dispatcher/apperr"
	"github.com/zhenyu888/event-dispatcher/ebus"
	"github.com/zhenyu888/event-dispatcher/funcs"
)

// IdGenerator 生成int64类型唯一标识
type IdGenerator interface {
	Gen(ctx context.Context) (int64, error)
}

type Repository interface {
	NextIdentify(context.Context) (int64, error)
	Save(context.Context, Aggregate) error
	Find(context.Context, int64) (Aggregate, error)
	FindNonNil(context.Context, int64) (Aggregate, error)
	Remove(context.Context, Aggregate) error
}

// RepositoryManager holds what every repository does around persistence:
// publishing the events an aggregate raised before it is written.
type RepositoryManager struct {
	pub   DomainEventPublisher
	idGen IdGenerator
}

func NewRepositoryManager(pub DomainEventPublisher, idGen IdGenerator) *RepositoryManager {
	return &RepositoryManager{pub: pub, idGen: idGen}
}

func (r *RepositoryManager) NextIdentify(ctx context.Context) (int64, error) {
	if r.idGen == nil {
		return 0, errors.New("no id generator configured")
	}
	return r.idGen.Gen(ctx)
}

// AroundSave publishes the raised events of an aggregate root in order, then
// calls doSave. Events nobody subscribed to are dropped. Any other publish
// failure aborts the save: the events already published are dropped from the
// aggregate, the failed one and those after it stay for the next save.
func (r *RepositoryManager) AroundSave(ctx context.Context, agg Aggregate, doSave func() error) error {
	r.AssertPointer(agg)
	if root, ok := agg.(AggregateRoot); ok {
		for idx, event := range root.Events() {
			err := r.pub.Publish(ctx, event)
			if err != nil && !errors.Is(err, ebus.ErrTypeNotFound) {
				root.DropEvents(idx)
				return errors.Wrapf(err, "save %s", funcs.ReflectValueName(agg))
			}
		}
		root.ClearEvents()
	}
	return doSave()
}

func (r *RepositoryManager) AroundFind(ctx context.Context, doFind func() (Aggregate, error)) (Aggregate, error) {
	return doFind()
}

func (r *RepositoryManager) AroundRemove(ctx context.Context, agg Aggregate, doRemove func() error) error {
	r.AssertPointer(agg)
	return doRemove()
}

func (r *RepositoryManager) NonNil(agg Aggregate, err error) error {
	if err != nil {
		return err
	}
	if agg == nil {
		return apperr.ErrNotFound("aggregate not found", "", "")
	}
	if v := reflect.ValueOf(agg); (v.Kind() == reflect.Ptr && v.IsNil()) || agg.AggregateId() <= 0 {
		notFound := fmt.Sprintf("%s not found", funcs.ReflectValueName(agg))
		return apperr.ErrNotFound(notFound, "", "")
	}
	return nil
}

func (r *RepositoryManager) AssertPointer(agg Aggregate) {
	if reflect.TypeOf(agg).Kind() != reflect.Ptr {
		panic("Aggregate param should be a pointer")
	}
}

func (r *RepositoryManager) AssertType(x, y interface{}) {
	if !funcs.TypeEqual(x, y) {
		panic(fmt.Sprintf("%s can not convert to %s", funcs.ReflectValueName(x), funcs.ReflectValueName(y)))
	}
}

type DBRepository interface {
	Repository
	GetDB(ctx context.Context) *gorm.DB
	GetWriteDB(ctx context.Context) *gorm.DB
}

// DBFactory 用来获取一个 *gorm.DB
type DBFactory interface {
	// LookupDB may return a read replica
	LookupDB(context.Context) (*gorm.DB, error)
	LookupWriteDB(context.Context) (*gorm.DB, error)
}

type AggregateExporter func() Aggregate

// DBRepositoryManager is a gorm backed Repository for one aggregate type,
// given by exporter.
type DBRepositoryManager struct {
	*RepositoryManager
	dbFactory DBFactory
	exporter  AggregateExporter
}

func NewDBRepositoryManager(manager *RepositoryManager, factory DBFactory, exporter AggregateExporter) *DBRepositoryManager {
	return &DBRepositoryManager{
		RepositoryManager: manager,
		dbFactory:         factory,
		exporter:          exporter,
	}
}

func (r *DBRepositoryManager) GetDB(ctx context.Context) *gorm.DB {
	db, _ := r.dbFactory.LookupDB(ctx)
	return db
}

func (r *DBRepositoryManager) GetWriteDB(ctx context.Context) *gorm.DB {
	db, _ := r.dbFactory.LookupWriteDB(ctx)
	return db
}

func (r *DBRepositoryManager) Save(ctx context.Context, aggregate Aggregate) error {
	r.AssertType(aggregate, r.exporter())
	return r.AroundSave(ctx, aggregate, func() error {
		db, err := r.dbFactory.LookupWriteDB(ctx)
		if err != nil {
			return apperr.ErrDBFail(err, "lookup write db")
		}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(aggregate).Error; err != nil {
			return apperr.ErrDBFail(err, "save "+funcs.ReflectValueName(aggregate))
		}
		return nil
	})
}

func (r *DBRepositoryManager) Remove(ctx context.Context, aggregate Aggregate) error {
	r.AssertType(aggregate, r.exporter())
	return r.AroundRemove(ctx, aggregate, func() error {
		db, err := r.dbFactory.LookupWriteDB(ctx)
		if err != nil {
			return apperr.ErrDBFail(err, "lookup write db")
		}
		if err := db.WithContext(ctx).Delete(aggregate).Error; err != nil {
			return apperr.ErrDBFail(err, "remove "+funcs.ReflectValueName(aggregate))
		}
		return nil
	})
}

func (r *DBRepositoryManager) Find(ctx context.Context, id int64) (Aggregate, error) {
	return r.AroundFind(ctx, func() (Aggregate, error) {
		db, err := r.dbFactory.LookupDB(ctx)
		if err != nil {
			return nil, apperr.ErrDBFail(err, "lookup db")
		}
		rlt := r.exporter()
		err = db.WithContext(ctx).Limit(1).Find(rlt, id).Error
		if err != nil {
			return nil, apperr.ErrDBFail(err, "find "+funcs.ReflectValueName(rlt))
		}
		if rlt.AggregateId() <= 0 {
			return nil, nil
		}
		return rlt, nil
	})
}

func (r *DBRepositoryManager) FindNonNil(ctx context.Context, id int64) (Aggregate, error) {
	rlt, err := r.Find(ctx, id)
	return rlt, r.NonNil(rlt, err)
}
